package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshmart/internal/domain"
	applog "freshmart/internal/log"
)

const genericMessage = "Something went wrong. Please try again."

// statusFor maps a domain error to a status code and a message safe to show
// buyers. Anything unrecognised is a 500 with the generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return fiber.StatusBadRequest, "Your cart is empty"
	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "Please log in to check out"
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrLineNotFound):
		return fiber.StatusNotFound, "This item is no longer available"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "Some items are no longer in stock. Any payment taken will be refunded."
	case errors.Is(err, domain.ErrProviderUnsupported):
		return fiber.StatusBadRequest, "That payment method is not available"
	case errors.Is(err, domain.ErrProviderRejected):
		return fiber.StatusPaymentRequired, "The payment provider declined this payment"
	case errors.Is(err, domain.ErrProviderTimeout):
		return fiber.StatusGatewayTimeout, "The payment provider did not answer in time. We will check your order shortly."
	case errors.Is(err, domain.ErrConfirmationUnverified):
		return fiber.StatusConflict, "Your payment has not been confirmed yet"
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrForbidden):
		return fiber.StatusNotFound, "Order not found"
	case errors.Is(err, domain.ErrRefundAlreadyDone):
		return fiber.StatusConflict, "This order has already been refunded"
	case errors.Is(err, domain.ErrRefundUnsupported):
		return fiber.StatusBadRequest, "This order cannot be refunded"
	case errors.Is(err, domain.ErrRefundRequestOpen):
		return fiber.StatusConflict, "A refund request for this order is already open"
	case errors.Is(err, domain.ErrRefundRequestNotFound):
		return fiber.StatusNotFound, "Refund request not found"
	case errors.Is(err, domain.ErrRefundRequestClosed):
		return fiber.StatusConflict, "This refund request has already been decided"
	}
	return fiber.StatusInternalServerError, genericMessage
}

func jsonError(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func pageError(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)
	return c.Status(code).Render("notfound", fiber.Map{"Message": msg})
}

// ErrorHandler is the app-wide fallback: log the cause, show a friendly page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	applog.Error(c, "server.error", err, nil)
	msg := genericMessage
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
