package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	portsrepo "github.com/finbooks/finbooks/internal/core/ports/repositories"
	portssvc "github.com/finbooks/finbooks/internal/core/ports/services"
	"github.com/finbooks/finbooks/internal/dto"
	"github.com/finbooks/finbooks/internal/platform/logging"
)

var (
	ErrSegmentGap           = errors.New("segment positions must be contiguous starting at 1")
	ErrSegmentLength        = errors.New("segment value length does not match its definition")
	ErrIncompleteSegments   = errors.New("segment values must cover every position exactly once")
	ErrInactiveSegmentValue = errors.New("segment value is inactive")
	ErrNoDefaultHandler     = errors.New("segment position has no default handler")
	ErrNotTrailingSegment   = errors.New("segment value does not belong to the trailing position")
)

// accountService builds and resolves accounts from ordered segment values.
type accountService struct {
	segmentRepo portsrepo.SegmentRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	tenantRepo  portsrepo.TenantRepositoryFacade
	clock       portssvc.Clock
}

// NewAccountService creates a new AccountSvcFacade.
func NewAccountService(segmentRepo portsrepo.SegmentRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, tenantRepo portsrepo.TenantRepositoryFacade, clock portssvc.Clock) portssvc.AccountSvcFacade {
	return &accountService{
		segmentRepo: segmentRepo,
		accountRepo: accountRepo,
		tenantRepo:  tenantRepo,
		clock:       clock,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// --- Segment definitions and values ---

func (s *accountService) DefineSegment(ctx context.Context, tenantID string, req dto.DefineSegmentRequest, userID string) (*domain.SegmentDefinition, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	handler := domain.DefaultHandlerKind(req.DefaultHandler)
	if !handler.IsValid() {
		return nil, fmt.Errorf("%w: unknown default handler %q", apperrors.ErrValidation, req.DefaultHandler)
	}

	existing, err := s.segmentRepo.FindDefinitionsByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment definitions: %w", err)
	}

	// The resulting position set must stay contiguous from 1.
	positions := map[int]bool{req.Position: true}
	for _, def := range existing {
		positions[def.Position] = true
	}
	for p := 1; p <= len(positions); p++ {
		if !positions[p] {
			return nil, fmt.Errorf("%w: position %d is missing", ErrSegmentGap, p)
		}
	}

	now := s.clock.Now()
	def := domain.SegmentDefinition{
		SegmentDefinitionID: uuid.NewString(),
		TenantID:            tenantID,
		Position:            req.Position,
		Length:              req.Length,
		Description:         req.Description,
		DefaultHandler:      handler,
		AuditFields: domain.NewAudit(now, userID),
	}
	// Keep the existing identifier when replacing a position.
	for _, old := range existing {
		if old.Position == req.Position {
			def.SegmentDefinitionID = old.SegmentDefinitionID
			def.CreatedAt = old.CreatedAt
			def.CreatedBy = old.CreatedBy
		}
	}

	if err := s.segmentRepo.UpsertDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to upsert segment definition at position %d: %w", req.Position, err)
	}
	return &def, nil
}

func (s *accountService) ListSegmentDefinitions(ctx context.Context, tenantID string) ([]domain.SegmentDefinition, error) {
	return s.segmentRepo.FindDefinitionsByTenant(ctx, tenantID)
}

func (s *accountService) CreateSegmentValue(ctx context.Context, tenantID string, req dto.CreateSegmentValueRequest, userID string) (*domain.SegmentValue, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	def, err := s.segmentRepo.FindDefinitionByID(ctx, req.SegmentDefinitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find segment definition %s: %w", req.SegmentDefinitionID, err)
	}
	if def.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if len(req.Code) != def.Length {
		return nil, fmt.Errorf("%w: code %q has length %d, definition at position %d requires %d",
			ErrSegmentLength, req.Code, len(req.Code), def.Position, def.Length)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.clock.Now()
	value := domain.SegmentValue{
		SegmentValueID:      uuid.NewString(),
		SegmentDefinitionID: def.SegmentDefinitionID,
		TenantID:            tenantID,
		Code:                req.Code,
		Description:         req.Description,
		IsActive:            active,
		AuditFields: domain.NewAudit(now, userID),
	}
	if err := s.segmentRepo.SaveValue(ctx, value); err != nil {
		return nil, fmt.Errorf("failed to save segment value %q: %w", req.Code, err)
	}
	return &value, nil
}

func (s *accountService) UpdateSegmentValue(ctx context.Context, tenantID string, valueID string, req dto.UpdateSegmentValueRequest, userID string) (*domain.SegmentValue, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	value, err := s.segmentRepo.FindValueByID(ctx, valueID)
	if err != nil {
		return nil, fmt.Errorf("failed to find segment value %s: %w", valueID, err)
	}
	if value.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	codeChanged := false
	if req.Code != nil && *req.Code != value.Code {
		def, err := s.segmentRepo.FindDefinitionByID(ctx, value.SegmentDefinitionID)
		if err != nil {
			return nil, fmt.Errorf("failed to find definition for value %s: %w", valueID, err)
		}
		if len(*req.Code) != def.Length {
			return nil, fmt.Errorf("%w: code %q has length %d, definition at position %d requires %d",
				ErrSegmentLength, *req.Code, len(*req.Code), def.Position, def.Length)
		}
		value.Code = *req.Code
		codeChanged = true
	}
	if req.Description != nil {
		value.Description = *req.Description
	}
	if req.IsActive != nil {
		value.IsActive = *req.IsActive
	}

	now := s.clock.Now()
	value.Touch(now, userID)
	if err := s.segmentRepo.UpdateValue(ctx, *value); err != nil {
		return nil, fmt.Errorf("failed to update segment value %s: %w", valueID, err)
	}

	// A code change re-describes every account containing the value.
	if codeChanged {
		if err := s.cascadeDescriptors(ctx, valueID, userID); err != nil {
			return nil, err
		}
		logger.Info("Segment value code changed, descriptors cascaded", slog.String("segment_value_id", valueID))
	}
	return value, nil
}

func (s *accountService) DeleteSegmentValue(ctx context.Context, tenantID string, valueID string, userID string) error {
	value, err := s.segmentRepo.FindValueByID(ctx, valueID)
	if err != nil {
		return fmt.Errorf("failed to find segment value %s: %w", valueID, err)
	}
	if value.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	return s.segmentRepo.DeleteValue(ctx, valueID, userID, s.clock.Now())
}

// cascadeDescriptors rebuilds the descriptor of every account containing the
// given value and persists them in one batch.
func (s *accountService) cascadeDescriptors(ctx context.Context, valueID string, userID string) error {
	accountIDs, err := s.accountRepo.FindAccountIDsBySegmentValue(ctx, valueID)
	if err != nil {
		return fmt.Errorf("failed to find accounts using value %s: %w", valueID, err)
	}
	if len(accountIDs) == 0 {
		return nil
	}

	descriptors := make(map[string]string, len(accountIDs))
	for _, accountID := range accountIDs {
		descriptor, err := s.descriptorForAccount(ctx, accountID)
		if err != nil {
			return err
		}
		descriptors[accountID] = descriptor
	}
	if err := s.accountRepo.UpdateDescriptors(ctx, descriptors, userID, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to rewrite descriptors: %w", err)
	}
	return nil
}

// descriptorForAccount rebuilds an account's descriptor from its current
// segment assignments.
func (s *accountService) descriptorForAccount(ctx context.Context, accountID string) (string, error) {
	segments, err := s.accountRepo.FindSegmentsByAccountID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to load segments for account %s: %w", accountID, err)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Position < segments[j].Position })

	valueIDs := make([]string, len(segments))
	for i, seg := range segments {
		valueIDs[i] = seg.SegmentValueID
	}
	values, err := s.segmentRepo.FindValuesByIDs(ctx, valueIDs)
	if err != nil {
		return "", fmt.Errorf("failed to load values for account %s: %w", accountID, err)
	}

	codes := make([]string, len(segments))
	for i, seg := range segments {
		value, ok := values[seg.SegmentValueID]
		if !ok {
			return "", fmt.Errorf("%w: segment value %s missing for account %s", apperrors.ErrInternal, seg.SegmentValueID, accountID)
		}
		codes[i] = value.Code
	}
	return domain.BuildDescriptor(codes), nil
}

// --- Account resolution ---

func (s *accountService) ResolveAccount(ctx context.Context, tenantID string, req dto.ResolveAccountRequest, userID string) (*domain.Account, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	definitions, err := s.segmentRepo.FindDefinitionsByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment definitions: %w", err)
	}
	if len(definitions) == 0 {
		return nil, fmt.Errorf("%w: tenant %s has no segment structure", apperrors.ErrValidation, tenantID)
	}

	values, err := s.segmentRepo.FindValuesByIDs(ctx, req.SegmentValueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment values: %w", err)
	}

	defByID := make(map[string]domain.SegmentDefinition, len(definitions))
	for _, def := range definitions {
		defByID[def.SegmentDefinitionID] = def
	}

	// Every required position must be covered exactly once by an active value
	// belonging to this tenant's structure.
	codeByPosition := make(map[int]string, len(definitions))
	valueIDByPosition := make(map[int]string, len(definitions))
	for _, id := range req.SegmentValueIDs {
		value, ok := values[id]
		if !ok {
			return nil, fmt.Errorf("%w: segment value %s", apperrors.ErrNotFound, id)
		}
		if value.TenantID != tenantID {
			return nil, fmt.Errorf("%w: segment value %s", apperrors.ErrNotFound, id)
		}
		if !value.IsActive {
			return nil, fmt.Errorf("%w: value %q", ErrInactiveSegmentValue, value.Code)
		}
		def, ok := defByID[value.SegmentDefinitionID]
		if !ok {
			return nil, fmt.Errorf("%w: value %s belongs to no known position", ErrIncompleteSegments, id)
		}
		if _, dup := codeByPosition[def.Position]; dup {
			return nil, fmt.Errorf("%w: position %d supplied twice", ErrIncompleteSegments, def.Position)
		}
		codeByPosition[def.Position] = value.Code
		valueIDByPosition[def.Position] = id
	}
	if len(codeByPosition) != len(definitions) {
		return nil, fmt.Errorf("%w: got %d of %d positions", ErrIncompleteSegments, len(codeByPosition), len(definitions))
	}

	codes := make([]string, len(definitions))
	segments := make([]domain.AccountSegment, len(definitions))
	for i, def := range definitions {
		codes[i] = codeByPosition[def.Position]
		segments[i] = domain.AccountSegment{Position: def.Position, SegmentValueID: valueIDByPosition[def.Position]}
	}
	descriptor := domain.BuildDescriptor(codes)

	existing, err := s.accountRepo.FindAccountByDescriptor(ctx, tenantID, descriptor)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account %q: %w", descriptor, err)
	}
	if existing != nil {
		if req.RequireNew {
			return nil, fmt.Errorf("%w: account %q", apperrors.ErrDuplicate, descriptor)
		}
		return existing, nil
	}

	name := req.Name
	if name == "" {
		name = descriptor
	}
	now := s.clock.Now()
	account := domain.Account{
		AccountID:        uuid.NewString(),
		TenantID:         tenantID,
		Descriptor:       descriptor,
		Name:             name,
		AccountType:      req.AccountType,
		IsActive:         true,
		AllowManualEntry: req.AllowManualEntry,
		AuditFields: domain.NewAudit(now, userID),
	}
	for i := range segments {
		segments[i].AccountID = account.AccountID
	}

	if err := s.accountRepo.SaveAccountWithSegments(ctx, account, segments); err != nil {
		// A concurrent resolver may have created the same descriptor.
		if errors.Is(err, apperrors.ErrDuplicate) && !req.RequireNew {
			return s.accountRepo.FindAccountByDescriptor(ctx, tenantID, descriptor)
		}
		return nil, fmt.Errorf("failed to save account %q: %w", descriptor, err)
	}

	logger.Info("Account resolved", slog.String("account_id", account.AccountID), slog.String("descriptor", descriptor))
	return &account, nil
}

func (s *accountService) ResolveAccountFromLastSegment(ctx context.Context, tenantID string, req dto.ResolveFromLastSegmentRequest, userID string) (*domain.Account, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	definitions, err := s.segmentRepo.FindDefinitionsByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment definitions: %w", err)
	}
	if len(definitions) == 0 {
		return nil, fmt.Errorf("%w: tenant %s has no segment structure", apperrors.ErrValidation, tenantID)
	}
	last := definitions[len(definitions)-1]

	trailing, err := s.segmentRepo.FindValueByID(ctx, req.SegmentValueID)
	if err != nil {
		return nil, fmt.Errorf("failed to find segment value %s: %w", req.SegmentValueID, err)
	}
	if trailing.SegmentDefinitionID != last.SegmentDefinitionID {
		return nil, fmt.Errorf("%w: value %q belongs to position %d", ErrNotTrailingSegment, trailing.Code, positionOf(definitions, trailing.SegmentDefinitionID))
	}

	valueIDs := make([]string, 0, len(definitions))
	for _, def := range definitions[:len(definitions)-1] {
		valueID, err := s.defaultValueFor(ctx, tenantID, def, userID)
		if err != nil {
			return nil, err
		}
		valueIDs = append(valueIDs, valueID)
	}
	valueIDs = append(valueIDs, req.SegmentValueID)

	return s.ResolveAccount(ctx, tenantID, dto.ResolveAccountRequest{
		SegmentValueIDs:  valueIDs,
		Name:             req.Name,
		AccountType:      req.AccountType,
		AllowManualEntry: req.AllowManualEntry,
	}, userID)
}

func positionOf(definitions []domain.SegmentDefinition, definitionID string) int {
	for _, def := range definitions {
		if def.SegmentDefinitionID == definitionID {
			return def.Position
		}
	}
	return 0
}

// defaultValueFor synthesizes the segment value of one non-trailing position
// from its default handler, creating the value row when it does not exist yet.
func (s *accountService) defaultValueFor(ctx context.Context, tenantID string, def domain.SegmentDefinition, userID string) (string, error) {
	var code, description string
	switch {
	case def.DefaultHandler == domain.DefaultFromTenant:
		tenant, err := s.tenantRepo.FindTenantByID(ctx, tenantID)
		if err != nil {
			return "", fmt.Errorf("failed to find tenant %s: %w", tenantID, err)
		}
		code = tenant.Code
		description = tenant.Name
	case def.DefaultHandler == domain.DefaultFromParentTenant:
		tenant, err := s.tenantRepo.FindTenantByID(ctx, tenantID)
		if err != nil {
			return "", fmt.Errorf("failed to find tenant %s: %w", tenantID, err)
		}
		if tenant.ParentTenantID == "" {
			return "", fmt.Errorf("%w: tenant %s has no parent for position %d", apperrors.ErrValidation, tenantID, def.Position)
		}
		parent, err := s.tenantRepo.FindTenantByID(ctx, tenant.ParentTenantID)
		if err != nil {
			return "", fmt.Errorf("failed to find parent tenant %s: %w", tenant.ParentTenantID, err)
		}
		code = parent.Code
		description = parent.Name
	default:
		if fixed, ok := def.DefaultHandler.FixedCode(); ok {
			code = fixed
			description = def.Description
		} else {
			return "", fmt.Errorf("%w: position %d", ErrNoDefaultHandler, def.Position)
		}
	}

	code, err := padCode(code, def.Length)
	if err != nil {
		return "", fmt.Errorf("%w: position %d: %v", apperrors.ErrValidation, def.Position, err)
	}

	existing, err := s.segmentRepo.FindValueByDefinitionAndCode(ctx, def.SegmentDefinitionID, code)
	if err == nil {
		return existing.SegmentValueID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to look up default value %q: %w", code, err)
	}

	now := s.clock.Now()
	value := domain.SegmentValue{
		SegmentValueID:      uuid.NewString(),
		SegmentDefinitionID: def.SegmentDefinitionID,
		TenantID:            tenantID,
		Code:                code,
		Description:         description,
		IsActive:            true,
		AuditFields: domain.NewAudit(now, userID),
	}
	if err := s.segmentRepo.SaveValue(ctx, value); err != nil {
		// Lost a race to another resolver; use theirs.
		if errors.Is(err, apperrors.ErrDuplicate) {
			if existing, err := s.segmentRepo.FindValueByDefinitionAndCode(ctx, def.SegmentDefinitionID, code); err == nil {
				return existing.SegmentValueID, nil
			}
		}
		return "", fmt.Errorf("failed to save default value %q: %w", code, err)
	}
	return value.SegmentValueID, nil
}

// padCode left-pads a code with zeros to the segment length.
func padCode(code string, length int) (string, error) {
	if len(code) > length {
		return "", fmt.Errorf("code %q longer than segment length %d", code, length)
	}
	return strings.Repeat("0", length-len(code)) + code, nil
}

func (s *accountService) UpdateTrailingSegment(ctx context.Context, tenantID string, accountID string, newSegmentValueID string, userID string) (*domain.Account, error) {
	account, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	segments, err := s.accountRepo.FindSegmentsByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segments for account %s: %w", accountID, err)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Position < segments[j].Position })
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: account %s has no segments", apperrors.ErrInternal, accountID)
	}
	lastSegment := segments[len(segments)-1]

	newValue, err := s.segmentRepo.FindValueByID(ctx, newSegmentValueID)
	if err != nil {
		return nil, fmt.Errorf("failed to find segment value %s: %w", newSegmentValueID, err)
	}
	if newValue.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if !newValue.IsActive {
		return nil, fmt.Errorf("%w: value %q", ErrInactiveSegmentValue, newValue.Code)
	}

	currentValue, err := s.segmentRepo.FindValueByID(ctx, lastSegment.SegmentValueID)
	if err != nil {
		return nil, fmt.Errorf("failed to find current trailing value: %w", err)
	}
	if newValue.SegmentDefinitionID != currentValue.SegmentDefinitionID {
		return nil, fmt.Errorf("%w: value %q", ErrNotTrailingSegment, newValue.Code)
	}

	// Rebuild the descriptor with the replacement in place.
	valueIDs := make([]string, len(segments))
	for i, seg := range segments {
		valueIDs[i] = seg.SegmentValueID
	}
	valueIDs[len(valueIDs)-1] = newSegmentValueID
	values, err := s.segmentRepo.FindValuesByIDs(ctx, valueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load segment values: %w", err)
	}
	codes := make([]string, len(valueIDs))
	for i, id := range valueIDs {
		value, ok := values[id]
		if !ok {
			return nil, fmt.Errorf("%w: segment value %s", apperrors.ErrNotFound, id)
		}
		codes[i] = value.Code
	}
	descriptor := domain.BuildDescriptor(codes)

	now := s.clock.Now()
	descriptors := map[string]string{accountID: descriptor}
	if err := s.accountRepo.ReplaceTrailingSegment(ctx, accountID, lastSegment.Position, newSegmentValueID, descriptors, userID, now); err != nil {
		return nil, fmt.Errorf("failed to replace trailing segment of account %s: %w", accountID, err)
	}

	account.Descriptor = descriptor
	account.Touch(now, userID)
	return account, nil
}

// --- Reads and administrative writes ---

func (s *accountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.TenantID != tenantID {
		// Obscure existence across tenants.
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("account %s not found", accountID))
	}
	return account, nil
}

func (s *accountService) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[string]domain.Account, len(accounts))
	for id, account := range accounts {
		if account.TenantID == tenantID {
			result[id] = account
		}
	}
	return result, nil
}

func (s *accountService) ListAccounts(ctx context.Context, tenantID string, params dto.ListParams) ([]domain.Account, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	return s.accountRepo.ListAccounts(ctx, tenantID, limit, params.NextToken)
}

func (s *accountService) DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error {
	if _, err := s.GetAccountByID(ctx, tenantID, accountID); err != nil {
		return err
	}
	return s.accountRepo.DeactivateAccount(ctx, accountID, userID, s.clock.Now())
}

func (s *accountService) SetAllowManualEntry(ctx context.Context, tenantID string, accountID string, allow bool, userID string) error {
	account, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	account.AllowManualEntry = allow
	account.Touch(s.clock.Now(), userID)
	return s.accountRepo.UpdateAccount(ctx, *account)
}
