package server

import (
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// Wire representations. Dates travel as "YYYY-MM-DD" strings; amounts are
// integers in minor currency units; a null user_id is an open slot.

type userJSON struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	Timezone       string `json:"timezone"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

func toUserJSON(u *models.User) userJSON {
	return userJSON{
		ID:             u.ID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Timezone:       u.Timezone,
		TelegramChatID: u.TelegramChatID,
		CreatedAt:      u.CreatedAt,
	}
}

type contributionJSON struct {
	ID               string  `json:"id,omitempty"`
	UserID           *string `json:"user_id"`
	AmountPaid       int64   `json:"amount_paid"`
	AmountOwed       int64   `json:"amount_owed"`
	ManualAmountOwed bool    `json:"manual_amount_owed,omitempty"`
	Status           string  `json:"status,omitempty"`
}

func toContributionJSON(c models.Contribution) contributionJSON {
	out := contributionJSON{
		ID:               c.ID,
		AmountPaid:       c.AmountPaid,
		AmountOwed:       c.AmountOwed,
		ManualAmountOwed: c.ManualAmountOwed,
		Status:           string(c.Status),
	}
	if uid, ok := c.Participant.UserID(); ok {
		out.UserID = &uid
	}
	return out
}

func fromContributionJSON(c contributionJSON) models.Contribution {
	participant := models.Unassigned()
	if c.UserID != nil {
		participant = models.AssignedTo(*c.UserID)
	}
	return models.Contribution{
		ID:               c.ID,
		Participant:      participant,
		AmountPaid:       c.AmountPaid,
		AmountOwed:       c.AmountOwed,
		ManualAmountOwed: c.ManualAmountOwed,
		Status:           models.ContributionStatus(c.Status),
	}
}

func toContributionsJSON(cs []models.Contribution) []contributionJSON {
	out := make([]contributionJSON, len(cs))
	for i, c := range cs {
		out[i] = toContributionJSON(c)
	}
	return out
}

func fromContributionsJSON(cs []contributionJSON) []models.Contribution {
	out := make([]models.Contribution, len(cs))
	for i, c := range cs {
		out[i] = fromContributionJSON(c)
	}
	return out
}

type cycleJSON struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

type subscriptionJSON struct {
	ID            string             `json:"id,omitempty"`
	Name          string             `json:"name"`
	OwnerID       string             `json:"owner_id,omitempty"`
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date,omitempty"`
	Cycle         cycleJSON          `json:"cycle"`
	Amount        int64              `json:"amount"`
	CurrencyCode  string             `json:"currency_code"`
	ReminderLead  string             `json:"reminder_lead,omitempty"`
	Contributions []contributionJSON `json:"contributions"`
}

func toSubscriptionJSON(s *models.Subscription) subscriptionJSON {
	out := subscriptionJSON{
		ID:            s.ID,
		Name:          s.Name,
		OwnerID:       s.OwnerID,
		StartDate:     s.StartDate.String(),
		Cycle:         cycleJSON{Unit: string(s.Cycle.Unit), Value: s.Cycle.Value},
		Amount:        s.Amount,
		CurrencyCode:  s.CurrencyCode,
		ReminderLead:  string(s.ReminderLead),
		Contributions: toContributionsJSON(s.Contributions),
	}
	if s.Ends() {
		out.EndDate = s.EndDate.String()
	}
	return out
}

func fromSubscriptionJSON(in subscriptionJSON) (*models.Subscription, error) {
	startDate, err := models.ParseDate(in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start_date", models.ErrInvalidArgument)
	}
	var endDate models.Date
	if in.EndDate != "" {
		endDate, err = models.ParseDate(in.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end_date", models.ErrInvalidArgument)
		}
	}

	return &models.Subscription{
		ID:            in.ID,
		Name:          in.Name,
		StartDate:     startDate,
		EndDate:       endDate,
		Cycle:         models.Cycle{Unit: models.CycleUnit(in.Cycle.Unit), Value: in.Cycle.Value},
		Amount:        in.Amount,
		CurrencyCode:  in.CurrencyCode,
		ReminderLead:  models.ReminderLead(in.ReminderLead),
		Contributions: fromContributionsJSON(in.Contributions),
	}, nil
}

type transactionJSON struct {
	ID            string             `json:"id,omitempty"`
	Name          string             `json:"name"`
	OwnerID       string             `json:"owner_id,omitempty"`
	Type          string             `json:"type,omitempty"`
	Date          string             `json:"date"`
	Amount        int64              `json:"amount"`
	CurrencyCode  string             `json:"currency_code"`
	Contributions []contributionJSON `json:"contributions"`
}

func toTransactionJSON(t *models.Transaction) transactionJSON {
	return transactionJSON{
		ID:            t.ID,
		Name:          t.Name,
		OwnerID:       t.OwnerID,
		Type:          string(t.Type),
		Date:          t.Date.String(),
		Amount:        t.Amount,
		CurrencyCode:  t.CurrencyCode,
		Contributions: toContributionsJSON(t.Contributions),
	}
}

func fromTransactionJSON(in transactionJSON) (*models.Transaction, error) {
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date", models.ErrInvalidArgument)
	}
	return &models.Transaction{
		ID:            in.ID,
		Name:          in.Name,
		Type:          models.TransactionType(in.Type),
		Date:          date,
		Amount:        in.Amount,
		CurrencyCode:  in.CurrencyCode,
		Contributions: fromContributionsJSON(in.Contributions),
	}, nil
}

type balanceJSON struct {
	UserID       string `json:"user_id"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

func toBalancesJSON(bs []models.UserBalance) []balanceJSON {
	out := make([]balanceJSON, len(bs))
	for i, b := range bs {
		out[i] = balanceJSON{UserID: b.UserID, Amount: b.Amount, CurrencyCode: b.CurrencyCode}
	}
	return out
}
