package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every Postgres-backed repository sharing one pool.
type Repositories struct {
	Users           UserRepository
	JobTitles       JobTitleRepository
	PasswordResets  PasswordResetRepository
	Nationalities   NationalityRepository
	Workers         WorkerRepository
	Clients         ClientRepository
	Marketers       MarketerRepository
	Contracts       ContractRepository
	ContractHistory ContractHistoryRepository
	Payroll         PayrollRepository
	Archive         ArchiveRepository
	Tx              Transactor
}

// New wires all repositories to pool.
func New(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(pool),
		JobTitles:       NewJobTitleRepository(pool),
		PasswordResets:  NewPasswordResetRepository(pool),
		Nationalities:   NewNationalityRepository(pool),
		Workers:         NewWorkerRepository(pool),
		Clients:         NewClientRepository(pool),
		Marketers:       NewMarketerRepository(pool),
		Contracts:       NewContractRepository(pool),
		ContractHistory: NewContractHistoryRepository(pool),
		Payroll:         NewPayrollRepository(pool),
		Archive:         NewArchiveRepository(pool),
		Tx:              NewTxRunner(pool),
	}
}
