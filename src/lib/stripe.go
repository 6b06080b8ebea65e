package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"rms/src/types"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// Provider calls never run inside a database transaction, so a slow
// gateway can only stall the caller, not a held row lock.
const gatewayTimeout = 15 * time.Second

type SessionLineItem struct {
	Name        string
	Description string
	ImageURL    string
	Currency    string
	UnitAmount  int64
	Quantity    int64
}

type CreateSessionInput struct {
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type SessionSnapshot struct {
	ID                 string
	Status             string
	PaymentStatus      string
	AmountTotal        int64
	Currency           string
	CustomerEmail      string
	CustomerName       string
	PaymentIntentID    string
	PaymentMethodTypes []string
	Metadata           map[string]string
}

// Settled reports whether the provider considers the session paid out.
func (s *SessionSnapshot) Settled() bool {
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) &&
		s.Status == string(stripe.CheckoutSessionStatusComplete)
}

type CheckoutGateway interface {
	CreateSession(ctx context.Context, input *CreateSessionInput) (*SessionSnapshot, string, error)
	RetrieveSession(ctx context.Context, sessionId string) (*SessionSnapshot, error)
}

type stripeGateway struct {
	sc *stripe.Client
}

func NewStripeGateway() CheckoutGateway {
	return &stripeGateway{sc: GetStripeClient()}
}

var gateway CheckoutGateway

func GetCheckoutGateway() CheckoutGateway {
	if gateway != nil {
		return gateway
	}
	gateway = NewStripeGateway()
	return gateway
}

// NewCheckoutGateway Replace gateway instance with custom implementation
func NewCheckoutGateway(g CheckoutGateway) CheckoutGateway {
	gateway = g
	return gateway
}

func (g *stripeGateway) CreateSession(ctx context.Context, input *CreateSessionInput) (*SessionSnapshot, string, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{}
	for _, v := range input.LineItems {
		productData := &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripe.String(v.Name),
		}
		if v.Description != "" {
			productData.Description = stripe.String(v.Description)
		}
		if v.ImageURL != "" {
			productData.Images = []*string{stripe.String(v.ImageURL)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripe.String(v.Currency),
				UnitAmount:  stripe.Int64(v.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(v.Quantity),
		})
	}
	params := stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		Metadata:   input.Metadata,
	}
	checkoutSession, err := g.sc.V1CheckoutSessions.Create(ctx, &params)
	if err != nil {
		log.Printf("[Stripe] Error creating CheckoutSession: %s\n", err.Error())
		return nil, "", fmt.Errorf("%w: %v", types.ErrPaymentGateway, err)
	}
	log.Printf("CheckoutSessionID: %s\n", checkoutSession.ID)
	return snapshotFromSession(checkoutSession), checkoutSession.URL, nil
}

func (g *stripeGateway) RetrieveSession(ctx context.Context, sessionId string) (*SessionSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()

	params := stripe.CheckoutSessionRetrieveParams{
		Expand: []*string{stripe.String("payment_intent")},
	}
	checkoutSession, err := g.sc.V1CheckoutSessions.Retrieve(ctx, sessionId, &params)
	if err != nil {
		log.Printf("[Stripe] Error retrieving CheckoutSession [%s]: %s\n", sessionId, err.Error())
		return nil, fmt.Errorf("%w: %v", types.ErrPaymentGateway, err)
	}
	return snapshotFromSession(checkoutSession), nil
}

func snapshotFromSession(cs *stripe.CheckoutSession) *SessionSnapshot {
	snap := &SessionSnapshot{
		ID:            cs.ID,
		Status:        string(cs.Status),
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		Metadata:      cs.Metadata,
	}
	for _, pmt := range cs.PaymentMethodTypes {
		snap.PaymentMethodTypes = append(snap.PaymentMethodTypes, string(pmt))
	}
	if cs.CustomerDetails != nil {
		snap.CustomerEmail = cs.CustomerDetails.Email
		snap.CustomerName = cs.CustomerDetails.Name
	}
	if cs.PaymentIntent != nil {
		snap.PaymentIntentID = cs.PaymentIntent.ID
	}
	return snap
}
