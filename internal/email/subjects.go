package email

const (
	subjectInvoiceFmt      = "Invoice %s from Encore Performance Media"
	fallbackQuoteSubject   = "Your performance media quote"
	fallbackFollowUpFmtSub = "Checking in on your performance media quote"
)
