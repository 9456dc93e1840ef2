// voucherdesk is the command line front end for the voucher REST API.
//
// Usage:
//
//	voucherdesk <command> [flags]
//
// Connection settings come from the environment (or a .env file): API_BASE_URL,
// API_TOKEN, REDIS_ADDRESS and friends. Run "voucherdesk help" for the command list.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/gateway"
	"github.com/mmdatafocus/voucher_desk/masterdata"
	"github.com/mmdatafocus/voucher_desk/orchestrator"
	"github.com/mmdatafocus/voucher_desk/utils"
)

type app struct {
	settings config.Settings
	client   *gateway.Client
	vouchers *gateway.VoucherService
	masters  *gateway.MasterService
	cache    *masterdata.Cache
	out      io.Writer
	errOut   io.Writer
	in       *bufio.Reader
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())

	a := newApp(ctx, config.LoadSettings())
	defer config.CloseRedis()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		switch {
		case errors.Is(err, errUsage):
			os.Exit(2)
		case errors.Is(err, gateway.ErrTenantSetupRequired):
			os.Exit(3)
		}
		os.Exit(1)
	}
}

func newApp(ctx context.Context, settings config.Settings) *app {
	session := gateway.NewSession()
	if settings.APIToken != "" {
		session.SetCredentials(settings.APIToken, "")
		session.MarkReady()
	}
	session.OnExpired(func(message string) {
		fmt.Fprintln(os.Stderr, message)
	})
	client := gateway.New(settings, session)
	masters := gateway.NewMasterService(client)

	var store masterdata.Store = masterdata.NewLRUStore(64, settings.CacheLifespan)
	if settings.RedisAddress != "" {
		rdb, err := config.ConnectRedisWithRetry(ctx, settings.RedisAddress, 3)
		if err != nil {
			config.LogError(config.GetLogger(), "voucherdesk", "newApp", "connect redis", settings.RedisAddress, err)
		} else {
			store = masterdata.NewRedisStore(rdb, config.GetRedisLock(), settings.CacheLifespan)
		}
	}

	return &app{
		settings: settings,
		client:   client,
		vouchers: gateway.NewVoucherService(client, settings),
		masters:  masters,
		cache:    masterdata.New(masters, masterdata.WithStore(store)),
		out:      os.Stdout,
		errOut:   os.Stderr,
		in:       bufio.NewReader(os.Stdin),
	}
}

// page builds the orchestrator for one voucher type, talking to the terminal.
func (a *app) page(cfgKey string, assumeYes bool) (*orchestrator.Page, error) {
	cfg, err := configFor(cfgKey)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(cfg, orchestrator.Deps{
		API:         a.vouchers,
		Masters:     a.masters,
		Cache:       a.cache,
		Notifier:    terminal{a: a},
		Confirmer:   terminal{a: a, assumeYes: assumeYes},
		PhoneRegion: a.settings.PhoneRegion,
	}), nil
}

// tenant probes the current company and scopes the shared caches to it.
func (a *app) tenant(ctx context.Context) (context.Context, error) {
	ctx = a.identity(ctx)
	company, err := a.client.CurrentTenant(ctx)
	if err != nil {
		return ctx, err
	}
	return utils.SetTenantIdInContext(ctx, fmt.Sprint(company.Id)), nil
}

// identity puts the signed-in user and role from the session token into ctx for logging.
func (a *app) identity(ctx context.Context) context.Context {
	session := a.client.Session()
	claims, err := utils.ParseSessionClaims(session.Token())
	if err != nil {
		return ctx
	}
	if claims.Subject != "" {
		ctx = utils.SetUsernameInContext(ctx, claims.Subject)
	}
	for _, role := range []string{session.Role(), claims.UserRole, claims.Role} {
		if role != "" {
			return utils.SetUserRoleInContext(ctx, role)
		}
	}
	return ctx
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type terminal struct {
	a         *app
	assumeYes bool
}

func (t terminal) Alert(message string) {
	fmt.Fprintln(t.a.errOut, "error:", message)
}

func (t terminal) Info(message string) {
	fmt.Fprintln(t.a.errOut, message)
}

func (t terminal) Confirm(message string) bool {
	if t.assumeYes || config.AutoConfirmDeletes() {
		return true
	}
	fmt.Fprint(t.a.errOut, message+" [y/N] ")
	line, err := t.a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
