package types

// DBTable represents a table as read from information_schema
type DBTable struct {
	Schema  string     `json:"schema"`
	Name    string     `json:"name"`
	Columns []DBColumn `json:"columns"`
}

// ColumnNames returns the names of all columns in ordinal order
func (t *DBTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// DBColumn represents a database column
type DBColumn struct {
	Name            string  `json:"name"`
	DataType        string  `json:"data_type"`
	IsNullable      string  `json:"is_nullable"`    // YES/NO
	ColumnDefault   *string `json:"column_default"` // Can be NULL
	OrdinalPosition int     `json:"ordinal_position"`
}

// Nullable reports whether information_schema marks the column as nullable
func (c DBColumn) Nullable() bool {
	return c.IsNullable == "YES"
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect string `json:"dialect"` // sqlserver, postgres, mysql, mariadb
	Driver  string `json:"driver"`  // database/sql driver name
	Target  string `json:"target"`  // redacted connection descriptor, safe to log
}
