package common

// Status values a contract may hold.
const (
	ContractSigned   = "signed"
	ContractUnsigned = "unsigned"
)

// DefaultTokenFileName is created in the operator's home directory.
const DefaultTokenFileName = ".epic_events_token"
