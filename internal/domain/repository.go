package domain

// Lookups return (nil, nil) when the record does not exist. Every method is
// atomic for the single record it touches; nothing spans records.

type ServerRepository interface {
	ListServers() ([]Server, error)
	GetServer(id string) (*Server, error)
	CreateServer(srv *Server) error
	UpdateServer(id string, patch ServerPatch) (*Server, error)
	SetProcessCount(id string, count int) error
	DeleteServer(id string) (bool, error)
}

type ProcessRepository interface {
	ListProcesses() ([]Process, error)
	GetProcess(id string) (*Process, error)
	CreateProcess(p *Process) error
	UpdateProcess(id string, patch ProcessPatch) (*Process, error)
	DeleteProcess(id string) (bool, error)
}

type MigrationRepository interface {
	ListMigrations() ([]Migration, error)
	GetMigration(id string) (*Migration, error)
	CreateMigration(m *Migration) error
	UpdateMigration(id string, patch MigrationPatch) (*Migration, error)
	DeleteMigration(id string) (bool, error)
}

type Store interface {
	ServerRepository
	ProcessRepository
	MigrationRepository
}
