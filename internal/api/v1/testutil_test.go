package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/query"
	"github.com/jpd-dfo/spacos/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Fixtures and context helpers for injecting the request principal
// ---------------------------------------------------------------------------

func fixedOrgID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func fixedUserID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func principalCtx(userID uuid.UUID) context.Context {
	return middleware.WithUserID(context.Background(), userID)
}

// guardFor returns a guard whose membership lookup always resolves the
// fixed user to the given role in the fixed organization.
func guardFor(role domain.Role) *guard.Guard {
	return guard.New(&mockMembershipRepo{
		getFunc: func(_ context.Context, organizationID, userID uuid.UUID) (*domain.Membership, error) {
			if organizationID != fixedOrgID() || userID != fixedUserID() {
				return nil, domain.ErrNotFound
			}
			return &domain.Membership{
				ID:             uuid.New(),
				OrganizationID: organizationID,
				UserID:         userID,
				Role:           role,
				CreatedAt:      time.Now(),
			}, nil
		},
	})
}

// guardFromStore builds a guard over the store's own membership repo so
// guard resolution and handler lookups share one mock.
func guardFromStore(s domain.Store) *guard.Guard {
	return guard.New(s.Memberships())
}

// ---------------------------------------------------------------------------
// Mock Store
// ---------------------------------------------------------------------------

type mockStore struct {
	organizations domain.OrganizationRepository
	memberships   domain.MembershipRepository
	users         domain.UserRepository
	spacs         domain.SPACRepository
	targets       domain.TargetRepository
	documents     domain.DocumentRepository
	analyses      domain.AnalysisRepository
	contacts      domain.ContactRepository
	audit         domain.AuditRepository
}

func (m *mockStore) Organizations() domain.OrganizationRepository { return m.organizations }
func (m *mockStore) Memberships() domain.MembershipRepository     { return m.memberships }
func (m *mockStore) Users() domain.UserRepository                 { return m.users }
func (m *mockStore) SPACs() domain.SPACRepository                 { return m.spacs }
func (m *mockStore) Targets() domain.TargetRepository             { return m.targets }
func (m *mockStore) Documents() domain.DocumentRepository         { return m.documents }
func (m *mockStore) Analyses() domain.AnalysisRepository          { return m.analyses }
func (m *mockStore) Contacts() domain.ContactRepository           { return m.contacts }
func (m *mockStore) Audit() domain.AuditRepository                { return m.audit }

// WithTx runs fn against the same mock; transactional scoping is a
// postgres concern, not a handler one.
func (m *mockStore) WithTx(_ context.Context, fn func(domain.Store) error) error {
	return fn(m)
}

// recordedAudit is the default audit repo: it remembers entries so tests
// can assert mutations were audited.
type recordedAudit struct {
	entries []*domain.AuditEntry
}

func (r *recordedAudit) Record(_ context.Context, entry *domain.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordedAudit) List(_ context.Context, _ uuid.UUID, _, _ int) ([]*domain.AuditEntry, int, error) {
	return r.entries, len(r.entries), nil
}

func (r *recordedAudit) ListByResource(_ context.Context, _ uuid.UUID, _ string, _ uuid.UUID) ([]*domain.AuditEntry, error) {
	return r.entries, nil
}

// ---------------------------------------------------------------------------
// Mock OrganizationRepository
// ---------------------------------------------------------------------------

type mockOrganizationRepo struct {
	createFunc     func(ctx context.Context, o *domain.Organization) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	getBySlugFunc  func(ctx context.Context, slug string) (*domain.Organization, error)
	updateFunc     func(ctx context.Context, o *domain.Organization) error
	listByUserFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Organization, error)
}

func (m *mockOrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	return m.createFunc(ctx, o)
}

func (m *mockOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrganizationRepo) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockOrganizationRepo) Update(ctx context.Context, o *domain.Organization) error {
	return m.updateFunc(ctx, o)
}

func (m *mockOrganizationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Organization, error) {
	return m.listByUserFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock MembershipRepository
// ---------------------------------------------------------------------------

type mockMembershipRepo struct {
	createFunc     func(ctx context.Context, m *domain.Membership) error
	getFunc        func(ctx context.Context, organizationID, userID uuid.UUID) (*domain.Membership, error)
	listFunc       func(ctx context.Context, organizationID uuid.UUID) ([]*domain.Membership, error)
	updateRoleFunc func(ctx context.Context, organizationID, userID uuid.UUID, role domain.Role) error
	deleteFunc     func(ctx context.Context, organizationID, userID uuid.UUID) error
}

func (m *mockMembershipRepo) Create(ctx context.Context, mb *domain.Membership) error {
	return m.createFunc(ctx, mb)
}

func (m *mockMembershipRepo) Get(ctx context.Context, organizationID, userID uuid.UUID) (*domain.Membership, error) {
	return m.getFunc(ctx, organizationID, userID)
}

func (m *mockMembershipRepo) List(ctx context.Context, organizationID uuid.UUID) ([]*domain.Membership, error) {
	return m.listFunc(ctx, organizationID)
}

func (m *mockMembershipRepo) UpdateRole(ctx context.Context, organizationID, userID uuid.UUID, role domain.Role) error {
	return m.updateRoleFunc(ctx, organizationID, userID, role)
}

func (m *mockMembershipRepo) Delete(ctx context.Context, organizationID, userID uuid.UUID) error {
	return m.deleteFunc(ctx, organizationID, userID)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc          func(ctx context.Context, u *domain.User) error
	getByIDFunc         func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc      func(ctx context.Context, email string) (*domain.User, error)
	updateFunc          func(ctx context.Context, u *domain.User) error
	createOAuthLinkFunc func(ctx context.Context, link *domain.UserOAuthLink) error
	getOAuthLinkFunc    func(ctx context.Context, provider, providerID string) (*domain.UserOAuthLink, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) CreateOAuthLink(ctx context.Context, link *domain.UserOAuthLink) error {
	return m.createOAuthLinkFunc(ctx, link)
}

func (m *mockUserRepo) GetOAuthLink(ctx context.Context, provider, providerID string) (*domain.UserOAuthLink, error) {
	return m.getOAuthLinkFunc(ctx, provider, providerID)
}

// ---------------------------------------------------------------------------
// Mock SPACRepository
// ---------------------------------------------------------------------------

type mockSPACRepo struct {
	createFunc  func(ctx context.Context, s *domain.SPAC) error
	getByIDFunc func(ctx context.Context, organizationID, id uuid.UUID) (*domain.SPAC, error)
	listFunc    func(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.SPAC, int, error)
	updateFunc  func(ctx context.Context, s *domain.SPAC) error
	deleteFunc  func(ctx context.Context, organizationID, id uuid.UUID) error

	deadlinesFunc func(ctx context.Context, cutoff time.Time) ([]*domain.SPAC, error)
}

func (m *mockSPACRepo) Create(ctx context.Context, s *domain.SPAC) error {
	return m.createFunc(ctx, s)
}

func (m *mockSPACRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.SPAC, error) {
	return m.getByIDFunc(ctx, organizationID, id)
}

func (m *mockSPACRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.SPAC, int, error) {
	return m.listFunc(ctx, organizationID, spec)
}

func (m *mockSPACRepo) Update(ctx context.Context, s *domain.SPAC) error {
	return m.updateFunc(ctx, s)
}

func (m *mockSPACRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	return m.deleteFunc(ctx, organizationID, id)
}

func (m *mockSPACRepo) ListDeadlinesBefore(ctx context.Context, cutoff time.Time) ([]*domain.SPAC, error) {
	return m.deadlinesFunc(ctx, cutoff)
}

// ---------------------------------------------------------------------------
// Mock TargetRepository
// ---------------------------------------------------------------------------

type mockTargetRepo struct {
	createFunc  func(ctx context.Context, t *domain.Target) error
	getByIDFunc func(ctx context.Context, organizationID, id uuid.UUID) (*domain.Target, error)
	listFunc    func(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Target, int, error)
	updateFunc  func(ctx context.Context, t *domain.Target) error
	deleteFunc  func(ctx context.Context, organizationID, id uuid.UUID) error
}

func (m *mockTargetRepo) Create(ctx context.Context, t *domain.Target) error {
	return m.createFunc(ctx, t)
}

func (m *mockTargetRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.Target, error) {
	return m.getByIDFunc(ctx, organizationID, id)
}

func (m *mockTargetRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Target, int, error) {
	return m.listFunc(ctx, organizationID, spec)
}

func (m *mockTargetRepo) Update(ctx context.Context, t *domain.Target) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTargetRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	return m.deleteFunc(ctx, organizationID, id)
}

// ---------------------------------------------------------------------------
// Mock DocumentRepository + AnalysisRepository
// ---------------------------------------------------------------------------

type mockDocumentRepo struct {
	createFunc  func(ctx context.Context, d *domain.Document) error
	getByIDFunc func(ctx context.Context, organizationID, id uuid.UUID) (*domain.Document, error)
	listFunc    func(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Document, int, error)
	updateFunc  func(ctx context.Context, d *domain.Document) error
	deleteFunc  func(ctx context.Context, organizationID, id uuid.UUID) error
}

func (m *mockDocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	return m.createFunc(ctx, d)
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.Document, error) {
	return m.getByIDFunc(ctx, organizationID, id)
}

func (m *mockDocumentRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Document, int, error) {
	return m.listFunc(ctx, organizationID, spec)
}

func (m *mockDocumentRepo) Update(ctx context.Context, d *domain.Document) error {
	return m.updateFunc(ctx, d)
}

func (m *mockDocumentRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	return m.deleteFunc(ctx, organizationID, id)
}

type mockAnalysisRepo struct {
	getFunc           func(ctx context.Context, documentID uuid.UUID) (*domain.DocumentAnalysis, error)
	upsertFunc        func(ctx context.Context, a *domain.DocumentAnalysis) error
	invalidateFunc    func(ctx context.Context, documentID uuid.UUID) error
	deleteExpiredFunc func(ctx context.Context, before time.Time) (int64, error)
}

func (m *mockAnalysisRepo) Get(ctx context.Context, documentID uuid.UUID) (*domain.DocumentAnalysis, error) {
	return m.getFunc(ctx, documentID)
}

func (m *mockAnalysisRepo) Upsert(ctx context.Context, a *domain.DocumentAnalysis) error {
	return m.upsertFunc(ctx, a)
}

func (m *mockAnalysisRepo) Invalidate(ctx context.Context, documentID uuid.UUID) error {
	return m.invalidateFunc(ctx, documentID)
}

func (m *mockAnalysisRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return m.deleteExpiredFunc(ctx, before)
}

// ---------------------------------------------------------------------------
// Mock ContactRepository
// ---------------------------------------------------------------------------

type mockContactRepo struct {
	createFunc  func(ctx context.Context, c *domain.Contact) error
	getByIDFunc func(ctx context.Context, organizationID, id uuid.UUID) (*domain.Contact, error)
	listFunc    func(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Contact, int, error)
	updateFunc  func(ctx context.Context, c *domain.Contact) error
	deleteFunc  func(ctx context.Context, organizationID, id uuid.UUID) error
}

func (m *mockContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	return m.createFunc(ctx, c)
}

func (m *mockContactRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.Contact, error) {
	return m.getByIDFunc(ctx, organizationID, id)
}

func (m *mockContactRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Contact, int, error) {
	return m.listFunc(ctx, organizationID, spec)
}

func (m *mockContactRepo) Update(ctx context.Context, c *domain.Contact) error {
	return m.updateFunc(ctx, c)
}

func (m *mockContactRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	return m.deleteFunc(ctx, organizationID, id)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
	loginOAuthFunc   func(ctx context.Context, provider, providerID, email, name, avatarURL string) (string, string, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) LoginOAuth(ctx context.Context, provider, providerID, email, name, avatarURL string) (accessToken, refreshToken string, err error) {
	return m.loginOAuthFunc(ctx, provider, providerID, email, name, avatarURL)
}
