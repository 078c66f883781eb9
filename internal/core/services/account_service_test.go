package services_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/finbooks/finbooks/internal/apperrors"
	"github.com/finbooks/finbooks/internal/core/domain"
	"github.com/finbooks/finbooks/internal/core/services"
	"github.com/finbooks/finbooks/internal/dto"
)

type AccountServiceTestSuite struct {
	suite.Suite
	env *testEnv
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
}

// defineThreeSegments builds the structure used by the resolution tests:
// position 1 defaults from the tenant code, position 2 is fixed, position 3
// is the trailing natural-account segment.
func (s *AccountServiceTestSuite) defineThreeSegments() []domain.SegmentDefinition {
	requests := []dto.DefineSegmentRequest{
		{Position: 1, Length: 4, Description: "company", DefaultHandler: "tenant"},
		{Position: 2, Length: 2, Description: "department", DefaultHandler: "fixed:9"},
		{Position: 3, Length: 4, Description: "natural account"},
	}
	defs := make([]domain.SegmentDefinition, len(requests))
	for i, req := range requests {
		def, err := s.env.container.Accounts.DefineSegment(s.env.ctx, s.env.tenantID, req, s.env.userID)
		s.Require().NoError(err)
		defs[i] = *def
	}
	return defs
}

func (s *AccountServiceTestSuite) createValue(definitionID, code string) *domain.SegmentValue {
	value, err := s.env.container.Accounts.CreateSegmentValue(s.env.ctx, s.env.tenantID, dto.CreateSegmentValueRequest{
		SegmentDefinitionID: definitionID,
		Code:                code,
	}, s.env.userID)
	s.Require().NoError(err)
	return value
}

func (s *AccountServiceTestSuite) TestDefineSegment_GapRejected() {
	_, err := s.env.container.Accounts.DefineSegment(s.env.ctx, s.env.tenantID, dto.DefineSegmentRequest{
		Position: 2,
		Length:   4,
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrSegmentGap)
}

func (s *AccountServiceTestSuite) TestDefineSegment_ReplaceKeepsIdentity() {
	first, err := s.env.container.Accounts.DefineSegment(s.env.ctx, s.env.tenantID, dto.DefineSegmentRequest{
		Position: 1,
		Length:   4,
	}, s.env.userID)
	s.Require().NoError(err)

	replaced, err := s.env.container.Accounts.DefineSegment(s.env.ctx, s.env.tenantID, dto.DefineSegmentRequest{
		Position: 1,
		Length:   6,
	}, s.env.userID)
	s.Require().NoError(err)
	s.Equal(first.SegmentDefinitionID, replaced.SegmentDefinitionID)
	s.Equal(6, replaced.Length)
}

func (s *AccountServiceTestSuite) TestCreateSegmentValue_LengthMismatch() {
	defs := s.defineThreeSegments()

	_, err := s.env.container.Accounts.CreateSegmentValue(s.env.ctx, s.env.tenantID, dto.CreateSegmentValueRequest{
		SegmentDefinitionID: defs[2].SegmentDefinitionID,
		Code:                "100",
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrSegmentLength)
}

func (s *AccountServiceTestSuite) TestResolveAccount_CreatesAndIsIdempotent() {
	defs := s.defineThreeSegments()
	v1 := s.createValue(defs[0].SegmentDefinitionID, "0007")
	v2 := s.createValue(defs[1].SegmentDefinitionID, "01")
	v3 := s.createValue(defs[2].SegmentDefinitionID, "1000")

	req := dto.ResolveAccountRequest{
		SegmentValueIDs: []string{v1.SegmentValueID, v2.SegmentValueID, v3.SegmentValueID},
		Name:            "Cash",
		AccountType:     domain.Asset,
	}
	account, err := s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, req, s.env.userID)
	s.Require().NoError(err)
	s.Equal("0007-01-1000", account.Descriptor)
	s.True(account.IsActive)

	// Resolving the same value set returns the existing account.
	again, err := s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, req, s.env.userID)
	s.Require().NoError(err)
	s.Equal(account.AccountID, again.AccountID)

	// Unless the caller demands a fresh one.
	req.RequireNew = true
	_, err = s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, req, s.env.userID)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *AccountServiceTestSuite) TestResolveAccount_IncompleteSegments() {
	defs := s.defineThreeSegments()
	v1 := s.createValue(defs[0].SegmentDefinitionID, "0007")
	v3 := s.createValue(defs[2].SegmentDefinitionID, "1000")

	_, err := s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, dto.ResolveAccountRequest{
		SegmentValueIDs: []string{v1.SegmentValueID, v3.SegmentValueID},
		AccountType:     domain.Asset,
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrIncompleteSegments)
}

func (s *AccountServiceTestSuite) TestResolveAccount_InactiveValueRejected() {
	defs := s.defineThreeSegments()
	v1 := s.createValue(defs[0].SegmentDefinitionID, "0007")
	v2 := s.createValue(defs[1].SegmentDefinitionID, "01")
	v3 := s.createValue(defs[2].SegmentDefinitionID, "1000")

	inactive := false
	_, err := s.env.container.Accounts.UpdateSegmentValue(s.env.ctx, s.env.tenantID, v3.SegmentValueID, dto.UpdateSegmentValueRequest{
		IsActive: &inactive,
	}, s.env.userID)
	s.Require().NoError(err)

	_, err = s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, dto.ResolveAccountRequest{
		SegmentValueIDs: []string{v1.SegmentValueID, v2.SegmentValueID, v3.SegmentValueID},
		AccountType:     domain.Asset,
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrInactiveSegmentValue)
}

func (s *AccountServiceTestSuite) TestResolveAccountFromLastSegment_DefaultHandlers() {
	defs := s.defineThreeSegments()
	v3 := s.createValue(defs[2].SegmentDefinitionID, "4000")

	account, err := s.env.container.Accounts.ResolveAccountFromLastSegment(s.env.ctx, s.env.tenantID, dto.ResolveFromLastSegmentRequest{
		SegmentValueID: v3.SegmentValueID,
		Name:           "Sales",
		AccountType:    domain.Revenue,
	}, s.env.userID)
	s.Require().NoError(err)

	// Tenant code "7" padded to length 4, fixed "9" padded to length 2.
	s.Equal("0007-09-4000", account.Descriptor)

	// The synthesized values are reused on the next resolution.
	again, err := s.env.container.Accounts.ResolveAccountFromLastSegment(s.env.ctx, s.env.tenantID, dto.ResolveFromLastSegmentRequest{
		SegmentValueID: v3.SegmentValueID,
		AccountType:    domain.Revenue,
	}, s.env.userID)
	s.Require().NoError(err)
	s.Equal(account.AccountID, again.AccountID)
}

func (s *AccountServiceTestSuite) TestResolveAccountFromLastSegment_NoDefaultHandler() {
	requests := []dto.DefineSegmentRequest{
		{Position: 1, Length: 4},
		{Position: 2, Length: 4},
	}
	var lastID string
	for _, req := range requests {
		def, err := s.env.container.Accounts.DefineSegment(s.env.ctx, s.env.tenantID, req, s.env.userID)
		s.Require().NoError(err)
		lastID = def.SegmentDefinitionID
	}
	v := s.createValue(lastID, "1000")

	_, err := s.env.container.Accounts.ResolveAccountFromLastSegment(s.env.ctx, s.env.tenantID, dto.ResolveFromLastSegmentRequest{
		SegmentValueID: v.SegmentValueID,
		AccountType:    domain.Asset,
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrNoDefaultHandler)
}

func (s *AccountServiceTestSuite) TestResolveAccountFromLastSegment_NotTrailing() {
	defs := s.defineThreeSegments()
	v2 := s.createValue(defs[1].SegmentDefinitionID, "01")

	_, err := s.env.container.Accounts.ResolveAccountFromLastSegment(s.env.ctx, s.env.tenantID, dto.ResolveFromLastSegmentRequest{
		SegmentValueID: v2.SegmentValueID,
		AccountType:    domain.Asset,
	}, s.env.userID)
	s.Require().Error(err)
	s.ErrorIs(err, services.ErrNotTrailingSegment)
}

func (s *AccountServiceTestSuite) TestUpdateTrailingSegment() {
	defs := s.defineThreeSegments()
	v3 := s.createValue(defs[2].SegmentDefinitionID, "4000")
	replacement := s.createValue(defs[2].SegmentDefinitionID, "4100")

	account, err := s.env.container.Accounts.ResolveAccountFromLastSegment(s.env.ctx, s.env.tenantID, dto.ResolveFromLastSegmentRequest{
		SegmentValueID: v3.SegmentValueID,
		AccountType:    domain.Revenue,
	}, s.env.userID)
	s.Require().NoError(err)

	updated, err := s.env.container.Accounts.UpdateTrailingSegment(s.env.ctx, s.env.tenantID, account.AccountID, replacement.SegmentValueID, s.env.userID)
	s.Require().NoError(err)
	s.Equal("0007-09-4100", updated.Descriptor)

	reloaded, err := s.env.container.Accounts.GetAccountByID(s.env.ctx, s.env.tenantID, account.AccountID)
	s.Require().NoError(err)
	s.Equal("0007-09-4100", reloaded.Descriptor)
}

func (s *AccountServiceTestSuite) TestUpdateSegmentValue_CodeChangeCascades() {
	defs := s.defineThreeSegments()
	v1 := s.createValue(defs[0].SegmentDefinitionID, "0007")
	v2 := s.createValue(defs[1].SegmentDefinitionID, "01")
	v3 := s.createValue(defs[2].SegmentDefinitionID, "1000")

	account, err := s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, dto.ResolveAccountRequest{
		SegmentValueIDs: []string{v1.SegmentValueID, v2.SegmentValueID, v3.SegmentValueID},
		AccountType:     domain.Asset,
	}, s.env.userID)
	s.Require().NoError(err)
	s.Equal("0007-01-1000", account.Descriptor)

	newCode := "02"
	_, err = s.env.container.Accounts.UpdateSegmentValue(s.env.ctx, s.env.tenantID, v2.SegmentValueID, dto.UpdateSegmentValueRequest{
		Code: &newCode,
	}, s.env.userID)
	s.Require().NoError(err)

	reloaded, err := s.env.container.Accounts.GetAccountByID(s.env.ctx, s.env.tenantID, account.AccountID)
	s.Require().NoError(err)
	s.Equal("0007-02-1000", reloaded.Descriptor)
}

func (s *AccountServiceTestSuite) TestDeleteSegmentValue_ReferencedRejected() {
	defs := s.defineThreeSegments()
	v1 := s.createValue(defs[0].SegmentDefinitionID, "0007")
	v2 := s.createValue(defs[1].SegmentDefinitionID, "01")
	v3 := s.createValue(defs[2].SegmentDefinitionID, "1000")

	_, err := s.env.container.Accounts.ResolveAccount(s.env.ctx, s.env.tenantID, dto.ResolveAccountRequest{
		SegmentValueIDs: []string{v1.SegmentValueID, v2.SegmentValueID, v3.SegmentValueID},
		AccountType:     domain.Asset,
	}, s.env.userID)
	s.Require().NoError(err)

	err = s.env.container.Accounts.DeleteSegmentValue(s.env.ctx, s.env.tenantID, v3.SegmentValueID, s.env.userID)
	s.ErrorIs(err, apperrors.ErrConflict)

	// An unreferenced value deletes cleanly.
	orphan := s.createValue(defs[2].SegmentDefinitionID, "9999")
	err = s.env.container.Accounts.DeleteSegmentValue(s.env.ctx, s.env.tenantID, orphan.SegmentValueID, s.env.userID)
	s.NoError(err)
}

func (s *AccountServiceTestSuite) TestGetAccountByID_OtherTenantObscured() {
	def := s.env.seedSingleSegment(s.T(), 4)
	account := s.env.seedAccount(s.T(), def.SegmentDefinitionID, "1000", domain.Asset, true)

	_, err := s.env.container.Accounts.GetAccountByID(s.env.ctx, "other-tenant", account.AccountID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AccountServiceTestSuite) TestDeactivateAccount_TwiceConflicts() {
	def := s.env.seedSingleSegment(s.T(), 4)
	account := s.env.seedAccount(s.T(), def.SegmentDefinitionID, "1000", domain.Asset, true)

	err := s.env.container.Accounts.DeactivateAccount(s.env.ctx, s.env.tenantID, account.AccountID, s.env.userID)
	s.Require().NoError(err)

	err = s.env.container.Accounts.DeactivateAccount(s.env.ctx, s.env.tenantID, account.AccountID, s.env.userID)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *AccountServiceTestSuite) TestListAccounts_Pagination() {
	def := s.env.seedSingleSegment(s.T(), 4)
	for _, code := range []string{"1000", "2000", "3000"} {
		s.env.seedAccount(s.T(), def.SegmentDefinitionID, code, domain.Asset, true)
	}

	page, next, err := s.env.container.Accounts.ListAccounts(s.env.ctx, s.env.tenantID, dto.ListParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(page, 2)
	s.Require().NotNil(next)

	rest, last, err := s.env.container.Accounts.ListAccounts(s.env.ctx, s.env.tenantID, dto.ListParams{Limit: 2, NextToken: next})
	s.Require().NoError(err)
	s.Len(rest, 1)
	s.Nil(last)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
