package pipeline

// SourceDateLayout is the accounting-date format used by the bank export
// (day.month.year).
const SourceDateLayout = "02.01.2006"

// DefaultCSVSeparator is the field separator of the bank's CSV export.
const DefaultCSVSeparator = ';'

// SourceColumns is the required column set of a raw statement extract. The
// names are fixed by the bank export, diacritics included, and must match
// exactly.
var SourceColumns = []string{
	"Data księgowania",
	"Nadawca / Odbiorca",
	"Tytułem",
	"Kwota operacji",
	"Typ operacji",
	"Kategoria",
	"Numer referencyjny",
}

// CanonicalColumns are the canonical field names, positionally matching
// SourceColumns.
var CanonicalColumns = []string{
	"date",
	"receiver",
	"title",
	"amount",
	"transaction_type",
	"category",
	"ref_number",
}
