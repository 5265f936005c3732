package models

// Payment is one paidDates entry viewed as a record.
type Payment struct {
	// Date is the calendar date key ("2006-01-02").
	Date string `json:"date"`

	// Person is the payer's name.
	Person string `json:"person"`
}

// Assignment pairs a purchase day with the person whose turn it is.
type Assignment struct {
	Date   string `json:"date"`
	Person string `json:"person"`
}
