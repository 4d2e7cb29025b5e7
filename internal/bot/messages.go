package bot

import (
	"fmt"

	"github.com/jamesdwilson/byteball-merchant/internal/catalog"
	"github.com/jamesdwilson/byteball-merchant/internal/model"
)

// Customer-facing texts.  Wording is part of the conversational contract
// with existing customers, so keep it stable.

const (
	msgShopNotReady  = "The shop is not set up yet, try again later"
	msgWalletCreated = "Wallet created, all new addresses will be synced to your device"
	msgColaReprompt  = "Add a cola (1,000 bytes)?  Please click Yes or No above."
	msgWaitingHint   = "Waiting for your payment.  If you want to cancel the order and start over, click [Cancel](command:cancel)."
	msgBePatient     = "We are waiting for confirmation of your payment.  Be patient."
	msgPaymentSeen   = "Received your payment, please wait a few minutes while it is still unconfirmed."
	msgConfirmed     = "Payment confirmed.  Your order is on its way to you!"
	msgDoublespend   = "Your payment appeared to be double-spend.  The order will not be fulfilled"
)

func msgGreeting() string {
	return fmt.Sprintf("Hi! Choose your pizza:\n%s\nAll pizzas are at 10,000 bytes.", catalog.ToppingsList())
}

func msgChooseTopping() string {
	return fmt.Sprintf("Please choose one of the toppings available:\n%s", catalog.ToppingsList())
}

func msgAddCola(toppingName string) string {
	return fmt.Sprintf("%s at 10,000 bytes.  Add a cola (1,000 bytes)?\n%s", toppingName, catalog.YesNoList())
}

func msgOrderSummary(toppingName string, withCola bool, amount int64, address string) string {
	summary := "Your order: " + toppingName
	if withCola {
		summary += " and Cola"
	}
	return fmt.Sprintf("%s.\nOrder total is %d bytes.  Please pay.\n[%d bytes](byteball:%s?amount=%d)",
		summary, amount, amount, address, amount)
}

func msgCancelled() string {
	return fmt.Sprintf("Order canceled.\nChoose your pizza:\n%s\nAll pizzas are at 10,000 bytes.", catalog.ToppingsList())
}

func msgStartOver(prior model.Step) string {
	lead := "Your payment appeared to be double-spend and was rejected.\nIf you want to make a new order,"
	if prior == model.StepDone {
		lead = "The order was paid and your pizza sent to you.\nIf you want to order another pizza,"
	}
	return fmt.Sprintf("%s choose the topping:\n%s\nAll pizzas are at 10,000 bytes.", lead, catalog.ToppingsList())
}

func msgAmountMismatch(expected, received int64) string {
	return fmt.Sprintf("Received incorect amount from you: expected %d bytes, received %d bytes.  The payment is ignored.",
		expected, received)
}
