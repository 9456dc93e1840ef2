package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmdatafocus/voucher_desk/gateway"
	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/mmdatafocus/voucher_desk/orchestrator"
	"github.com/mmdatafocus/voucher_desk/utils"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: voucherdesk <command> [flags]

commands:
  types                                   list voucher types
  login -email E -password P              print an access token
  list -type T [-latest N]                list vouchers, highest number first
  show -type T -id N                      show one voucher with totals
  next-number -type T                     print the next voucher number
  create -type T -set path=value ...      create a voucher
  update -type T -id N -set path=value    update a voucher
  delete -type T -id N [-yes]             delete a voucher
  search -type T [-term S] [-from D] [-to D]
  export -type T [-id N] [-out DIR]       write an .xlsx of a voucher or of the list
  masters -resource vendors|customers|products
  add -resource vendors|customers|products -json '{...}' [-type T]
`)
}

// assignments collects repeated -set path=value flags.
type assignments []string

func (s *assignments) String() string { return strings.Join(*s, ",") }

func (s *assignments) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected path=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

// parseAssignment splits "path=value". JSON objects, arrays, booleans and null are decoded;
// everything else stays text and is parsed by the draft.
func parseAssignment(s string) (string, any, error) {
	path, raw, ok := strings.Cut(s, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", nil, fmt.Errorf("expected path=value, got %q", s)
	}
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "null":
		return path, nil, nil
	case trimmed == "true", trimmed == "false":
		return path, trimmed == "true", nil
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		var v any
		if err := utils.UnmarshalWithNumbers([]byte(trimmed), &v); err != nil {
			return "", nil, fmt.Errorf("%s: %w", path, err)
		}
		return path, v, nil
	}
	return path, raw, nil
}

// apply sets every assignment, adding line items as item paths reach past the end.
func apply(page *orchestrator.Page, sets assignments) error {
	for _, s := range sets {
		path, value, err := parseAssignment(s)
		if err != nil {
			return err
		}
		err = page.UpdateField(path, value)
		for attempts := 0; errors.Is(err, models.ErrItemOutOfRange) && attempts < 100; attempts++ {
			if err = page.AddItem(); err != nil {
				break
			}
			err = page.UpdateField(path, value)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func configFor(key string) (models.VoucherConfig, error) {
	if strings.TrimSpace(key) == "" {
		return models.VoucherConfig{}, fmt.Errorf("%w: -type is required (see: voucherdesk types)", errUsage)
	}
	cfg, err := models.Config(key)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", errUsage, err)
	}
	return cfg, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	typeKey := fs.String("type", "", "voucher type key")
	id := fs.Int("id", 0, "voucher id")
	latest := fs.Int("latest", 0, "only the N most recent vouchers")
	term := fs.String("term", "", "voucher number or party name")
	from := fs.String("from", "", "from date (YYYY-MM-DD)")
	to := fs.String("to", "", "to date (YYYY-MM-DD)")
	outDir := fs.String("out", ".", "export directory")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "login password")
	resource := fs.String("resource", "", "vendors, customers or products")
	payload := fs.String("json", "", "JSON body of the new record")
	var sets assignments
	fs.Var(&sets, "set", "field assignment path=value (repeatable)")

	switch command {
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	case "types":
		return a.types()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if command == "login" {
		resp, err := a.client.Login(ctx, *email, *password)
		if err != nil {
			fmt.Fprintln(a.errOut, "error:", userMessage(err))
			return err
		}
		fmt.Fprintln(a.out, resp.AccessToken)
		return nil
	}

	ctx, err := a.tenant(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.errOut, "error:", userMessage(err))
		}
		return err
	}

	switch command {
	case "masters":
		return a.listMasters(ctx, models.MasterResource(*resource))
	case "add":
		return a.addMaster(ctx, *typeKey, models.MasterResource(*resource), *payload)
	}

	page, err := a.page(*typeKey, *yes)
	if err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return err
	}
	defer page.Close()

	switch command {
	case "list":
		if err := page.RefreshList(ctx); err != nil {
			return err
		}
		if *latest > 0 {
			return a.printJSON(page.Latest(*latest))
		}
		return a.printJSON(page.List())
	case "show":
		if err := page.EnterViewMode(ctx, *id); err != nil {
			return err
		}
		return a.printDraft(page)
	case "next-number":
		if err := page.EnterCreateMode(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, page.NextNumber())
		return nil
	case "create":
		if err := page.EnterCreateMode(ctx); err != nil {
			return err
		}
		return a.submit(ctx, page, sets)
	case "update":
		if err := page.EnterEditMode(ctx, *id); err != nil {
			return err
		}
		return a.submit(ctx, page, sets)
	case "delete":
		if err := page.RefreshList(ctx); err != nil {
			return err
		}
		_, err := page.Remove(ctx, *id)
		return err
	case "search":
		filter, err := searchFilter(*term, *from, *to)
		if err != nil {
			fmt.Fprintln(a.errOut, "error:", err)
			return err
		}
		if err := page.RefreshList(ctx); err != nil {
			return err
		}
		found, err := page.Search(ctx, filter)
		if err != nil {
			return err
		}
		return a.printJSON(found)
	case "export":
		return a.export(ctx, page, *id, *outDir)
	}
	usage(a.errOut)
	return errUsage
}

func (a *app) types() error {
	type row struct {
		Key        string `json:"key"`
		Title      string `json:"title"`
		EntityType string `json:"entity_type"`
		Kind       string `json:"kind"`
	}
	rows := make([]row, 0)
	for _, key := range models.Keys() {
		cfg := models.MustConfig(key)
		rows = append(rows, row{Key: cfg.Key, Title: cfg.Title, EntityType: string(cfg.EntityType), Kind: string(cfg.Kind)})
	}
	return a.printJSON(rows)
}

func (a *app) submit(ctx context.Context, page *orchestrator.Page, sets assignments) error {
	if err := apply(page, sets); err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return err
	}
	saved, err := page.Submit(ctx)
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		for _, m := range verr.Messages() {
			fmt.Fprintln(a.errOut, "error:", m)
		}
	}
	if err != nil {
		return err
	}
	return a.printJSON(saved)
}

func (a *app) printDraft(page *orchestrator.Page) error {
	snap := page.Snapshot()
	return a.printJSON(struct {
		Mode          models.PageMode      `json:"mode"`
		Voucher       *models.VoucherDraft `json:"voucher"`
		Totals        models.VoucherTotals `json:"totals"`
		AmountInWords string               `json:"amount_in_words"`
	}{snap.Mode, snap.Draft, snap.Totals, snap.AmountInWords})
}

func searchFilter(term, from, to string) (models.SearchFilter, error) {
	f := models.SearchFilter{Term: term}
	var err error
	if f.From, err = models.ParseDate(from); err != nil {
		return f, fmt.Errorf("invalid from date %q", from)
	}
	if f.To, err = models.ParseDate(to); err != nil {
		return f, fmt.Errorf("invalid to date %q", to)
	}
	return f, nil
}

func (a *app) export(ctx context.Context, page *orchestrator.Page, id int, dir string) error {
	var buf bytes.Buffer
	var name string
	var err error
	if id > 0 {
		if err := page.EnterViewMode(ctx, id); err != nil {
			return err
		}
		name, err = page.Export(ctx, &buf)
	} else {
		if err := page.RefreshList(ctx); err != nil {
			return err
		}
		name, err = page.ExportList(ctx, &buf)
	}
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return err
	}
	fmt.Fprintln(a.out, path)
	return nil
}

func (a *app) listMasters(ctx context.Context, resource models.MasterResource) error {
	var v any
	var err error
	switch resource {
	case models.MasterResourceVendors:
		v, err = a.cache.Vendors(ctx)
	case models.MasterResourceCustomers:
		v, err = a.cache.Customers(ctx)
	case models.MasterResourceProducts:
		v, err = a.cache.Products(ctx)
	default:
		fmt.Fprintln(a.errOut, "error: -resource must be vendors, customers or products")
		return errUsage
	}
	if err != nil {
		fmt.Fprintln(a.errOut, "error:", userMessage(err))
		return err
	}
	return a.printJSON(v)
}

func (a *app) addMaster(ctx context.Context, typeKey string, resource models.MasterResource, payload string) error {
	if typeKey == "" {
		typeKey = "purchase-voucher"
		if resource == models.MasterResourceCustomers {
			typeKey = "sales-voucher"
		}
	}
	page, err := a.page(typeKey, false)
	if err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return err
	}
	defer page.Close()

	decode := func(v any) error {
		dec := json.NewDecoder(strings.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			fmt.Fprintln(a.errOut, "error: invalid -json:", err)
			return errUsage
		}
		return nil
	}
	var created any
	switch resource {
	case models.MasterResourceVendors:
		var input models.NewVendor
		if err := decode(&input); err != nil {
			return err
		}
		created, err = page.AddVendor(ctx, input)
	case models.MasterResourceCustomers:
		var input models.NewCustomer
		if err := decode(&input); err != nil {
			return err
		}
		created, err = page.AddCustomer(ctx, input)
	case models.MasterResourceProducts:
		var input models.NewProduct
		if err := decode(&input); err != nil {
			return err
		}
		created, err = page.AddProduct(ctx, input)
	default:
		fmt.Fprintln(a.errOut, "error: -resource must be vendors, customers or products")
		return errUsage
	}
	if err != nil {
		return err
	}
	return a.printJSON(created)
}

func userMessage(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return gateway.UserMessage(err)
}
