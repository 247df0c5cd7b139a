package schema

// ColumnType is the primitive type a contract declares for a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeFloat
	TypeInt
	TypeDate
	TypeTimestamp
)

// Column declares one column of a contract.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool // Required columns must not contain null (empty) cells
}

// Contract is a per-stage schema declaration a table must satisfy.
type Contract struct {
	ID      string
	Columns []Column
}

// Contract identifiers recognized by the default registry.
const (
	ContractRawAlphaVantage = "raw:alpha_vantage"
	ContractRawYahooFinance = "raw:yahoo_finance"
	ContractTransformed     = "transformed"
)

func rawColumns() []Column {
	return []Column{
		{Name: "date", Type: TypeDate, Required: true},
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "open", Type: TypeFloat},
		{Name: "high", Type: TypeFloat},
		{Name: "low", Type: TypeFloat},
		{Name: "close", Type: TypeFloat, Required: true},
		{Name: "volume", Type: TypeInt},
		{Name: "data_source", Type: TypeString, Required: true},
		{Name: "extracted_at", Type: TypeTimestamp, Required: true},
	}
}

func transformedColumns() []Column {
	cols := rawColumns()
	// The transformed stage replaces extracted_at with processed_at and
	// adds the derived field set.
	cols[8] = Column{Name: "processed_at", Type: TypeTimestamp, Required: true}
	return append(cols,
		Column{Name: "daily_change_pct", Type: TypeFloat},
		Column{Name: "daily_volatility", Type: TypeFloat},
	)
}

// defaultContracts returns the recognized schema contracts keyed by ID.
func defaultContracts() map[string]Contract {
	return map[string]Contract{
		ContractRawAlphaVantage: {ID: ContractRawAlphaVantage, Columns: rawColumns()},
		ContractRawYahooFinance: {ID: ContractRawYahooFinance, Columns: rawColumns()},
		ContractTransformed:     {ID: ContractTransformed, Columns: transformedColumns()},
	}
}
