package rates

import "github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"

// Filter field names, as the rate service spells them.
const (
	MarketID          = "market_id"
	ElementID         = "element_id"
	ElementSubtypeID  = "element_subtype_id"
	LoadingPortID     = "loading_port_id"
	EntryPortID       = "entry_port_id"
	TransportMode     = "transport_mode"
	ContainerTypeID   = "container_type_id"
	DestinationPortID = "destination_port_id"
	AgentOfficeID     = "agent_office_id"
	DepartmentID      = "department_id"
	OriginCountryID   = "origin_country_id"
	ImportCountryID   = "import_country_id"
	TaxCategoryID     = "tax_category_id"
)

// Non-dimension sheet columns.
const (
	HeaderEffectiveDate   = "Effective Date"
	HeaderTerminationDate = "Termination Date"
	HeaderRateType        = "Rate Type"
	HeaderRateValue       = "Rate Value"
	HeaderCurrencyCode    = "Currency Code"
	HeaderUOM             = "Unit of Measure"
	HeaderUpdateUserID    = "Update User ID"
	HeaderCreateTS        = "Create TS"
	HeaderUpdateTS        = "Update TS"
	HeaderRemarks         = "Remarks"
)

// DataHeaders are appended after the dimension columns, in this order.
var DataHeaders = []string{
	HeaderEffectiveDate,
	HeaderTerminationDate,
	HeaderRateType,
	HeaderRateValue,
	HeaderCurrencyCode,
	HeaderUOM,
	HeaderUpdateUserID,
	HeaderCreateTS,
	HeaderUpdateTS,
}

// Source says where a field's labels come from.
type Source int

const (
	// FromCatalog fields resolve through the dimension catalog.
	FromCatalog Source = iota
	// FromMarkets fields resolve through the purchase company list.
	FromMarkets
	// FromElements fields resolve through the element list.
	FromElements
	// FromFactors fields resolve through the factor list.
	FromFactors
)

// Field describes one filter field and its spreadsheet column.
type Field struct {
	Name      string
	Header    string
	Dimension string // catalog link name, FromCatalog only
	Source    Source
}

// Catalogued reports whether the field resolves through the catalog.
func (f Field) Catalogued() bool { return f.Source == FromCatalog }

// Fields is the canonical column order of every rate sheet.
var Fields = []Field{
	{Name: MarketID, Header: "*Purchase Company", Source: FromMarkets},
	{Name: ElementID, Header: "*Element", Source: FromElements},
	{Name: ElementSubtypeID, Header: "*Factor", Source: FromFactors},
	{Name: LoadingPortID, Header: "*Loading Port", Dimension: catalog.Port},
	{Name: EntryPortID, Header: "*Entry Port", Dimension: catalog.Port},
	{Name: TransportMode, Header: "*Transport Mode", Dimension: catalog.TransportMode},
	{Name: ContainerTypeID, Header: "*Container Type", Dimension: catalog.Container},
	{Name: DestinationPortID, Header: "*Destination Port", Dimension: catalog.Port},
	{Name: AgentOfficeID, Header: "*Agent Office", Dimension: catalog.AgentOffice},
	{Name: DepartmentID, Header: "*Department", Dimension: catalog.Department},
	{Name: OriginCountryID, Header: "*Origin Country", Dimension: catalog.Country},
	{Name: ImportCountryID, Header: "*Import Country", Dimension: catalog.Country},
	{Name: TaxCategoryID, Header: "*Tax Category", Dimension: catalog.TaxCategory},
}

// FieldByName looks a field up by its service name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByHeader looks a field up by its column header. The leading "*" is
// optional so that sheets exported without markers still import.
func FieldByHeader(header string) (Field, bool) {
	for _, f := range Fields {
		if f.Header == header || f.Header[1:] == header {
			return f, true
		}
	}
	return Field{}, false
}

// DimensionFields returns the catalogued fields in column order.
func DimensionFields() []Field {
	var out []Field
	for _, f := range Fields {
		if f.Catalogued() {
			out = append(out, f)
		}
	}
	return out
}
