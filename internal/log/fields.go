package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldBackend       = "backend"
	FieldCount         = "count"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldInvoiceNumber = "invoice_number"
	FieldCustomer      = "customer"
	FieldTotal         = "total_amount"
	FieldPaid          = "amount_paid"
	FieldStatus        = "payment_status"
	FieldPath          = "path"
	FieldEventType     = "event_type"
	FieldDuration      = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentInvoice   = "invoice"
	ComponentAnalytics = "analytics"
	ComponentStorage   = "storage"
	ComponentPostgres  = "postgres"
	ComponentSheets    = "sheets"
	ComponentFile      = "file"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentDocument  = "document"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpAppend   = "append"
	OpFinalize = "finalize"
	OpPayment  = "update_payment"
	OpExport   = "export"
	OpReport   = "report"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMigrate  = "migrate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithInvoice adds the identifying and monetary fields of an invoice.
func (f LogFields) WithInvoice(number, customer string, total, paid float64, status string) LogFields {
	f[FieldInvoiceNumber] = number
	f[FieldCustomer] = customer
	f[FieldTotal] = total
	f[FieldPaid] = paid
	f[FieldStatus] = status
	return f
}

// WithPeriod adds year and month fields.
func (f LogFields) WithPeriod(year, month int) LogFields {
	f[FieldYear] = year
	f[FieldMonth] = month
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
