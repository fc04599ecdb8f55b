package server

import (
	"time"

	"github.com/adiallo/debtbook/internal/models"
	"github.com/adiallo/debtbook/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type configResponse struct {
	PollIntervalMS int64  `json:"poll_interval_ms"`
	Currency       string `json:"currency"`
}

type transactionResponse struct {
	ID             string     `json:"id"`
	PersonID       string     `json:"person_id"`
	Description    string     `json:"description"`
	Comment        string     `json:"comment,omitempty"`
	Amount         float64    `json:"amount"`
	OriginalAmount float64    `json:"original_amount"`
	Date           time.Time  `json:"date"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Settled        bool       `json:"settled"`
	IsPayment      bool       `json:"is_payment"`
	Mode           string     `json:"type"`
	Signature      string     `json:"signature,omitempty"`
}

func toTransactionResponse(tx *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:             tx.ID,
		PersonID:       tx.PersonID,
		Description:    tx.Description,
		Comment:        tx.Comment,
		Amount:         tx.Amount,
		OriginalAmount: tx.OriginalAmount,
		Date:           tx.Date,
		DueDate:        tx.DueDate,
		Settled:        tx.Settled,
		IsPayment:      tx.IsPayment,
		Mode:           string(tx.Mode),
		Signature:      tx.Signature,
	}
}

type personResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Signature    string                `json:"signature,omitempty"`
	Balance      float64               `json:"balance"`
	Overdue      bool                  `json:"overdue"`
	Transactions []transactionResponse `json:"transactions"`
}

func toPersonResponse(row service.PersonBalance) personResponse {
	txs := make([]transactionResponse, 0, len(row.Person.Transactions))
	for _, tx := range row.Person.Transactions {
		txs = append(txs, toTransactionResponse(tx))
	}
	return personResponse{
		ID:           row.Person.ID,
		Name:         row.Person.Name,
		Signature:    row.Person.Signature,
		Balance:      row.Balance,
		Overdue:      row.Overdue,
		Transactions: txs,
	}
}

type addTransactionRequest struct {
	PersonID        string     `json:"person_id,omitempty"`
	PersonName      string     `json:"person_name,omitempty"`
	PersonSignature string     `json:"person_signature,omitempty"`
	Description     string     `json:"description"`
	Comment         string     `json:"comment,omitempty"`
	Amount          float64    `json:"amount"`
	Mode            string     `json:"type"`
	Date            *time.Time `json:"date,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Signature       string     `json:"signature,omitempty"`
}

type paymentRequest struct {
	PersonID    string     `json:"person_id"`
	Amount      float64    `json:"amount"`
	Mode        string     `json:"type"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	Signature   string     `json:"signature,omitempty"`
}

type paymentResponse struct {
	Transaction transactionResponse    `json:"transaction"`
	Settled     bool                   `json:"settled"`
	Record      *settledRecordResponse `json:"record,omitempty"`
	Warning     string                 `json:"warning,omitempty"`
}

type editAmountRequest struct {
	PersonID string  `json:"person_id"`
	Amount   float64 `json:"amount"`
	Mode     string  `json:"type"`
}

type editAmountResponse struct {
	NoOp       bool                   `json:"no_op"`
	Adjustment *transactionResponse   `json:"adjustment,omitempty"`
	Settled    bool                   `json:"settled"`
	Record     *settledRecordResponse `json:"record,omitempty"`
	Warning    string                 `json:"warning,omitempty"`
}

type settleRequest struct {
	Mode  string `json:"type"`
	Notes string `json:"notes,omitempty"`
}

type settledRecordResponse struct {
	ID                string                `json:"id"`
	PersonID          string                `json:"person_id"`
	PersonName        string                `json:"person_name"`
	TotalAmount       float64               `json:"total_amount"`
	Currency          string                `json:"currency"`
	Mode              string                `json:"type"`
	SettledByUserID   string                `json:"settled_by_user_id"`
	SettledByUserName string                `json:"settled_by_user_name"`
	Transactions      []transactionResponse `json:"transactions"`
	SettledAt         int64                 `json:"settled_at"`
	Notes             string                `json:"notes,omitempty"`
}

func toSettledRecordResponse(rec *models.SettledRecord) *settledRecordResponse {
	txs := make([]transactionResponse, 0, len(rec.Transactions))
	for i := range rec.Transactions {
		txs = append(txs, toTransactionResponse(&rec.Transactions[i]))
	}
	return &settledRecordResponse{
		ID:                rec.ID,
		PersonID:          rec.PersonID,
		PersonName:        rec.PersonName,
		TotalAmount:       rec.TotalAmount,
		Currency:          rec.Currency,
		Mode:              string(rec.Type),
		SettledByUserID:   rec.SettledByUserID,
		SettledByUserName: rec.SettledByUserName,
		Transactions:      txs,
		SettledAt:         rec.SettledAt,
		Notes:             rec.Notes,
	}
}

type activityResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	Action      string  `json:"action"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	PersonName  string  `json:"person_name,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

func toActivityResponse(e *models.ActivityLog) activityResponse {
	return activityResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		Action:      string(e.Action),
		Category:    string(e.Category),
		Description: e.Description,
		PersonName:  e.PersonName,
		Amount:      e.Amount,
		CreatedAt:   e.CreatedAt,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}
