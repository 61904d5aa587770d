package domain

import "context"

// Store aggregates the repositories. WithTx runs fn against a store view
// bound to a single transaction so an entity mutation and its audit record
// commit or roll back together.
type Store interface {
	Organizations() OrganizationRepository
	Memberships() MembershipRepository
	Users() UserRepository
	SPACs() SPACRepository
	Targets() TargetRepository
	Documents() DocumentRepository
	Analyses() AnalysisRepository
	Contacts() ContactRepository
	Audit() AuditRepository

	WithTx(ctx context.Context, fn func(Store) error) error
}
