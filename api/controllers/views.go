package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/db/models"
	"github.com/caterbase/caterbase-backend/pkg/enums"
)

// customerView exposes safe account data in API responses. The access key
// hash never leaves the server.
type customerView struct {
	ID                 uuid.UUID                   `json:"id"`
	Name               string                      `json:"name"`
	Phone              string                      `json:"phone"`
	Address            *string                     `json:"address,omitempty"`
	Balance            decimal.Decimal             `json:"balance"`
	PaymentStatus      enums.CustomerPaymentStatus `json:"payment_status"`
	AccessKeyExpiresAt *time.Time                  `json:"access_key_expires_at,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

func customerFromModel(m *models.Customer) *customerView {
	if m == nil {
		return nil
	}
	return &customerView{
		ID:                 m.ID,
		Name:               m.Name,
		Phone:              m.Phone,
		Address:            m.Address,
		Balance:            m.Balance,
		PaymentStatus:      m.PaymentStatus,
		AccessKeyExpiresAt: m.AccessKeyExpiresAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func customersFromModels(rows []models.Customer) []customerView {
	views := make([]customerView, 0, len(rows))
	for i := range rows {
		views = append(views, *customerFromModel(&rows[i]))
	}
	return views
}

type orderItemView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type orderView struct {
	ID              uuid.UUID                `json:"id"`
	CustomerID      uuid.UUID                `json:"customer_id"`
	Status          enums.OrderStatus        `json:"status"`
	PaymentStatus   enums.OrderPaymentStatus `json:"payment_status"`
	DeliveryAddress string                   `json:"delivery_address"`
	DeliveryCost    decimal.Decimal          `json:"delivery_cost"`
	Amount          decimal.Decimal          `json:"amount"`
	Note            *string                  `json:"note,omitempty"`
	Items           []orderItemView          `json:"items"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func orderFromModel(m *models.Order) *orderView {
	if m == nil {
		return nil
	}
	items := make([]orderItemView, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, orderItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Total:     item.Total,
		})
	}
	return &orderView{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		Status:          m.Status,
		PaymentStatus:   m.PaymentStatus,
		DeliveryAddress: m.DeliveryAddress,
		DeliveryCost:    m.DeliveryCost,
		Amount:          m.Amount,
		Note:            m.Note,
		Items:           items,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func ordersFromModels(rows []models.Order) []orderView {
	views := make([]orderView, 0, len(rows))
	for i := range rows {
		views = append(views, *orderFromModel(&rows[i]))
	}
	return views
}

type paymentView struct {
	ID            uuid.UUID           `json:"id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	BankName      *string             `json:"bank_name,omitempty"`
	WalletNumber  *string             `json:"wallet_number,omitempty"`
	TransactionID *string             `json:"transaction_id,omitempty"`
	ReceiverName  *string             `json:"receiver_name,omitempty"`
	Note          *string             `json:"note,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func paymentFromModel(m *models.Payment) *paymentView {
	if m == nil {
		return nil
	}
	return &paymentView{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		Amount:        m.Amount,
		Method:        m.Method,
		BankName:      m.BankName,
		WalletNumber:  m.WalletNumber,
		TransactionID: m.TransactionID,
		ReceiverName:  m.ReceiverName,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func paymentsFromModels(rows []models.Payment) []paymentView {
	views := make([]paymentView, 0, len(rows))
	for i := range rows {
		views = append(views, *paymentFromModel(&rows[i]))
	}
	return views
}

type discountView struct {
	Type      enums.DiscountType `json:"type"`
	Value     decimal.Decimal    `json:"value"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
}

type productView struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	Description       *string             `json:"description,omitempty"`
	Tags              []string            `json:"tags"`
	UnitPrice         decimal.Decimal     `json:"unit_price"`
	Discount          *discountView       `json:"discount,omitempty"`
	StockQuantity     int                 `json:"stock_quantity"`
	LowStockThreshold int                 `json:"low_stock_threshold"`
	Status            enums.ProductStatus `json:"status"`
	ImageURL          *string             `json:"image_url,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func productFromModel(m *models.Product) *productView {
	if m == nil {
		return nil
	}
	view := &productView{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		Tags:              []string(m.Tags),
		UnitPrice:         m.UnitPrice,
		StockQuantity:     m.StockQuantity,
		LowStockThreshold: m.LowStockThreshold,
		Status:            m.Status,
		ImageURL:          m.ImageURL,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}
	if m.DiscountType != nil && m.DiscountValue != nil {
		view.Discount = &discountView{
			Type:      *m.DiscountType,
			Value:     *m.DiscountValue,
			ExpiresAt: m.DiscountExpiresAt,
		}
	}
	return view
}

func productsFromModels(rows []models.Product) []productView {
	views := make([]productView, 0, len(rows))
	for i := range rows {
		views = append(views, *productFromModel(&rows[i]))
	}
	return views
}

type staffUserView struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	FullName    string          `json:"full_name"`
	Role        enums.StaffRole `json:"role"`
	IsActive    bool            `json:"is_active"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func staffUserFromModel(m *models.StaffUser) *staffUserView {
	if m == nil {
		return nil
	}
	return &staffUserView{
		ID:          m.ID,
		Email:       m.Email,
		FullName:    m.FullName,
		Role:        m.Role,
		IsActive:    m.IsActive,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
