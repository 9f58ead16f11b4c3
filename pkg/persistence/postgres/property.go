package postgres

import "github.com/propplyai/propply-ai/pkg/model"

// Property is the row shape for nyc_properties.
type Property struct {
	PropertyID string `db:"property_id"`
	Address    string `db:"address"`
	BIN        string `db:"bin"`
	BBL        string `db:"bbl"`
	Borough    string `db:"borough"`
	Block      string `db:"block"`
	Lot        string `db:"lot"`
	ZIPCode    string `db:"zip_code"`
}

// NewProperty builds the db row for one ComplianceRecord's identifiers.
func NewProperty(record model.ComplianceRecord) *Property {
	return &Property{
		PropertyID: model.PropertyID(model.PropertyIdentifiers{
			BIN: record.BIN, BBL: record.BBL, Address: record.Address,
		}),
		Address: record.Address,
		BIN:     record.BIN,
		BBL:     record.BBL,
		Borough: string(record.Borough),
		Block:   record.Block,
		Lot:     record.Lot,
		ZIPCode: record.ZIPCode,
	}
}
