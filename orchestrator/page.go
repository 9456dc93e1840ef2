package orchestrator

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/gateway"
	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const moduleName = "orchestrator"

type LoadingState struct {
	List        bool
	Detail      bool
	NextNumber  bool
	Submit      bool
	AddVendor   bool
	AddCustomer bool
	AddProduct  bool
}

// Deps are the collaborators of a Page. API is required; the rest have defaults.
type Deps struct {
	API       VoucherAPI
	Masters   MasterAPI
	Cache     MasterData
	Notifier  Notifier
	Confirmer Confirmer
	Logger    *logrus.Logger
	Now       func() time.Time
	// PhoneRegion is the default region for contact numbers of new vendors and customers.
	PhoneRegion string
}

// Page is the orchestrator of one voucher page.
// Every backend response is applied only if the page is still open and no newer
// request for the same slice of state (list, draft, next number) was started.
type Page struct {
	cfg    models.VoucherConfig
	deps   Deps
	logger *logrus.Logger

	mu          sync.Mutex
	closed      bool
	mode        models.PageMode
	selectedId  int
	draft       *models.VoucherDraft
	fieldErrors map[string]string
	nextNumber  string
	list        []models.VoucherListEntry
	filter      models.SearchFilter
	filtered    []models.VoucherListEntry
	modals      ModalState
	loading     LoadingState
	submitting  bool

	listGen   uint64
	draftGen  uint64
	numberGen uint64
}

func New(cfg models.VoucherConfig, deps Deps) *Page {
	if deps.Logger == nil {
		deps.Logger = config.GetLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = logNotifier{logger: deps.Logger}
	}
	if deps.Confirmer == nil {
		deps.Confirmer = envConfirmer{}
	}
	if deps.PhoneRegion == "" {
		deps.PhoneRegion = "IN"
	}
	return &Page{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		mode:   models.PageModeCreate,
		draft:  models.NewDraft(cfg, deps.Now()),
	}
}

func (p *Page) Config() models.VoucherConfig { return p.cfg }

// Open loads the list and prepares a blank voucher, concurrently.
func (p *Page) Open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.RefreshList(gctx) })
	g.Go(func() error { return p.EnterCreateMode(gctx) })
	return g.Wait()
}

// Close unmounts the page; responses still in flight are dropped.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Page) Mode() models.PageMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Page) SelectedId() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedId
}

// Draft returns a copy of the current draft.
func (p *Page) Draft() *models.VoucherDraft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft.Clone()
}

func (p *Page) FieldErrors() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.fieldErrors)
}

func (p *Page) NextNumber() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextNumber
}

func (p *Page) AmountInWords() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.AmountInWords(p.draft.Totals.GrandTotal)
}

func (p *Page) Loading() LoadingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// EnterCreateMode resets the draft to its defaults and requests the next voucher number.
func (p *Page) EnterCreateMode(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	p.resetDraftLocked()
	p.mu.Unlock()
	return p.fetchNextNumber(ctx)
}

func (p *Page) resetDraftLocked() {
	p.draftGen++
	p.mode = models.PageModeCreate
	p.selectedId = 0
	p.draft = models.NewDraft(p.cfg, p.deps.Now())
	p.fieldErrors = nil
	p.loading.Detail = false
}

func (p *Page) EnterEditMode(ctx context.Context, id int) error {
	return p.loadRecord(ctx, id, models.PageModeEdit)
}

func (p *Page) EnterViewMode(ctx context.Context, id int) error {
	return p.loadRecord(ctx, id, models.PageModeView)
}

// loadRecord replaces the draft with record id. On failure the previous mode and draft stay.
func (p *Page) loadRecord(ctx context.Context, id int, mode models.PageMode) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	p.draftGen++
	gen := p.draftGen
	p.loading.Detail = true
	p.mu.Unlock()

	draft, err := p.deps.API.Get(ctx, p.cfg, id)

	p.mu.Lock()
	if p.closed || gen != p.draftGen {
		p.mu.Unlock()
		return nil
	}
	p.loading.Detail = false
	if err != nil {
		p.mu.Unlock()
		p.fail("loadRecord", id, err)
		return err
	}
	p.draft = draft
	p.mode = mode
	p.selectedId = id
	p.fieldErrors = nil
	p.mu.Unlock()
	return nil
}

// UpdateField applies one edit to the draft. Totals are recomputed before it returns.
func (p *Page) UpdateField(path string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.editableLocked(); err != nil {
		return err
	}
	if err := p.draft.SetField(path, value); err != nil {
		return err
	}
	delete(p.fieldErrors, path)
	return nil
}

func (p *Page) AddItem() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.editableLocked(); err != nil {
		return err
	}
	return p.draft.AddItem()
}

func (p *Page) RemoveItem(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.editableLocked(); err != nil {
		return err
	}
	return p.draft.RemoveItem(index)
}

func (p *Page) editableLocked() error {
	if p.closed {
		return ErrPageClosed
	}
	if !p.mode.IsEditable() {
		return ErrReadOnlyMode
	}
	return nil
}

// Submit validates the draft and creates or updates it depending on the mode.
// A draft failing validation never reaches the network; its field messages are kept for FieldErrors.
func (p *Page) Submit(ctx context.Context) (*models.VoucherDraft, error) {
	p.mu.Lock()
	if err := p.editableLocked(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	if p.submitting {
		p.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if err := p.draft.Validate(p.cfg); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			p.fieldErrors = maps.Clone(verr.Fields)
		}
		p.mu.Unlock()
		return nil, err
	}
	p.fieldErrors = nil
	p.submitting = true
	p.loading.Submit = true
	mode, id, gen := p.mode, p.selectedId, p.draftGen
	body := p.draft.Clone()
	p.mu.Unlock()

	var saved *models.VoucherDraft
	var err error
	if mode == models.PageModeCreate {
		saved, err = p.deps.API.Create(ctx, p.cfg, body)
	} else {
		saved, err = p.deps.API.Update(ctx, p.cfg, id, body)
	}

	p.mu.Lock()
	p.submitting = false
	p.loading.Submit = false
	if p.closed {
		p.mu.Unlock()
		return saved, err
	}
	if err != nil {
		p.mu.Unlock()
		p.fail("Submit", body.VoucherNumber(), err)
		return nil, err
	}
	resetCreate := mode == models.PageModeCreate && gen == p.draftGen
	switch {
	case resetCreate:
		p.resetDraftLocked()
	case mode == models.PageModeEdit && gen == p.draftGen:
		p.draftGen++
		p.draft = saved.Clone()
	}
	p.mu.Unlock()

	config.LogInfo(p.logger, moduleName, "Submit", "voucher saved", logrus.Fields{
		"voucherType":   p.cfg.Key,
		"voucherNumber": saved.VoucherNumber(),
		"mode":          mode.String(),
	})
	p.deps.Notifier.Info(p.cfg.Title + " saved successfully")

	// the save succeeded; refresh failures are reported but not returned
	_ = p.RefreshList(ctx)
	if resetCreate {
		_ = p.fetchNextNumber(ctx)
	}
	return saved, nil
}

// fetchNextNumber requests the next voucher number and pre-fills it on a blank create draft.
func (p *Page) fetchNextNumber(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	p.numberGen++
	gen, draftGen := p.numberGen, p.draftGen
	p.loading.NextNumber = true
	p.mu.Unlock()

	number, err := p.deps.API.NextNumber(ctx, p.cfg)

	p.mu.Lock()
	if p.closed || gen != p.numberGen {
		p.mu.Unlock()
		return nil
	}
	p.loading.NextNumber = false
	if err != nil {
		p.mu.Unlock()
		p.fail("fetchNextNumber", nil, err)
		return err
	}
	p.nextNumber = number
	if p.mode == models.PageModeCreate && draftGen == p.draftGen && p.draft.VoucherNumber() == "" {
		_ = p.draft.SetField(models.FieldVoucherNumber, number)
	}
	p.mu.Unlock()
	return nil
}

// Remove asks for confirmation, then deletes record id and refetches the list.
// It reports false with a nil error when the user declines. A failed delete leaves the list as it was.
func (p *Page) Remove(ctx context.Context, id int) (bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false, ErrPageClosed
	}
	label := ""
	for _, e := range p.list {
		if e.Id == id {
			label = e.VoucherNumber
			break
		}
	}
	p.mu.Unlock()
	if label == "" {
		label = "#" + strconv.Itoa(id)
	}

	if !p.deps.Confirmer.Confirm("Are you sure you want to delete voucher " + label + "?") {
		return false, nil
	}
	if err := p.deps.API.Delete(ctx, p.cfg, id); err != nil {
		p.fail("Remove", id, err)
		return false, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return true, nil
	}
	reset := p.selectedId == id
	if reset {
		p.resetDraftLocked()
	}
	p.mu.Unlock()

	p.deps.Notifier.Info("Voucher " + label + " deleted successfully")
	_ = p.RefreshList(ctx)
	if reset {
		_ = p.fetchNextNumber(ctx)
	}
	return true, nil
}

// Snapshot is a consistent copy of everything a page renders.
type Snapshot struct {
	Mode          models.PageMode
	SelectedId    int
	Draft         *models.VoucherDraft
	Totals        models.VoucherTotals
	AmountInWords string
	FieldErrors   map[string]string
	NextNumber    string
	List          []models.VoucherListEntry
	Latest        []models.VoucherListEntry
	Filter        models.SearchFilter
	Filtered      []models.VoucherListEntry
	Modals        ModalState
	Loading       LoadingState
}

const latestCount = 5

func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Mode:          p.mode,
		SelectedId:    p.selectedId,
		Draft:         p.draft.Clone(),
		Totals:        p.draft.Totals,
		AmountInWords: models.AmountInWords(p.draft.Totals.GrandTotal),
		FieldErrors:   maps.Clone(p.fieldErrors),
		NextNumber:    p.nextNumber,
		List:          slices.Clone(p.list),
		Latest:        models.Latest(p.list, latestCount),
		Filter:        p.filter,
		Filtered:      slices.Clone(p.filtered),
		Modals:        p.modals,
		Loading:       p.loading,
	}
}

// fail logs err and tells the user. Expired sessions were already announced by the gateway.
func (p *Page) fail(funcName string, data any, err error) {
	config.LogError(p.logger, moduleName, funcName, p.cfg.Key, data, err)
	if errors.Is(err, gateway.ErrSessionExpired) || errors.Is(err, context.Canceled) {
		return
	}
	p.deps.Notifier.Alert(userMessage(err))
}

func userMessage(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) || errors.Is(err, models.ErrInvalidDateSpan) {
		return err.Error()
	}
	return gateway.UserMessage(err)
}

type logNotifier struct {
	logger *logrus.Logger
}

func (n logNotifier) Alert(message string) {
	n.logger.WithField("module", moduleName).Warn(message)
}

func (n logNotifier) Info(message string) {
	n.logger.WithField("module", moduleName).Info(message)
}

type envConfirmer struct{}

func (envConfirmer) Confirm(string) bool { return config.AutoConfirmDeletes() }
