package domain

// TransactionType names a financial operation recorded on a payment.
type TransactionType string

const (
	TxTypeAuthorization       TransactionType = "Authorization"
	TxTypeCancelAuthorization TransactionType = "CancelAuthorization"
	TxTypeCharge              TransactionType = "Charge"
	TxTypeRefund              TransactionType = "Refund"
	TxTypeChargeback          TransactionType = "Chargeback"
)

// Payment update action names understood by the commerce platform.
const (
	ActionAddTransaction          = "addTransaction"
	ActionChangeTransactionState  = "changeTransactionState"
	ActionAddInterfaceInteraction = "addInterfaceInteraction"
)

// DefaultInteractionTypeKey is the custom type key used for notification interface interactions.
const DefaultInteractionTypeKey = "ctp-adyen-integration-interaction-notification"

// NotificationAccepted is the literal acknowledgment token the provider expects.
const NotificationAccepted = "[accepted]"
