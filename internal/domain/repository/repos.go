package repository

// Repos conjunto de repositorios atados a una misma transacción.
type Repos struct {
	Users         UserRepository
	Contracts     ContractRepository
	Orders        OrderRepository
	Audit         AuditRepository
	RoleRequests  RoleRequestRepository
	Verifications VerificationCodeRepository
	Settings      SettingsRepository
}
