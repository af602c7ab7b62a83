package model

// ImportResult is the ledger's verdict on a block it was asked to connect.
type ImportResult int

const (
	ImportedBest ImportResult = iota
	ImportedNotBest
	NoParent
	InvalidBlock
	Exist
)

func (r ImportResult) String() string {
	switch r {
	case ImportedBest:
		return "IMPORTED_BEST"
	case ImportedNotBest:
		return "IMPORTED_NOT_BEST"
	case NoParent:
		return "NO_PARENT"
	case InvalidBlock:
		return "INVALID_BLOCK"
	case Exist:
		return "EXIST"
	default:
		return "UNKNOWN"
	}
}

// IsSuccessful reports whether the block was appended to the ledger.
func (r ImportResult) IsSuccessful() bool {
	return r == ImportedBest || r == ImportedNotBest
}
