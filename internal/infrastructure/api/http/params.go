package http

const (
	MerchantTransactionIDParam = "merchantTransactionId"
	HeaderXVerify              = "X-VERIFY"
)
