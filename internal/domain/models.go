package domain

// Role роль пользователя в каталоге
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
	RoleNGO   Role = "NGO"
)

// ValidRole проверяет, что значение — одна из известных ролей
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleUser, RoleNGO:
		return true
	}
	return false
}

// UserProfile профиль текущей сессии; нигде не сохраняется
type UserProfile struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NotFound сентинел для полей, которые не удалось распознать на упаковке
const NotFound = "Not Found"

// MedicineDetails результат извлечения полей с фотографий упаковки
type MedicineDetails struct {
	MedicineName string `json:"medicineName"`
	ExpiryDate   string `json:"expiryDate"`
	Dosage       string `json:"dosage"`
}

// MedicineRecord единица на складе. Создаётся при регистрации, удаляется
// при покупке/клейме/удалении и больше никогда не меняется.
// ExpiryDate — свободный текст, только для отображения.
type MedicineRecord struct {
	ID           string   `json:"id"`
	MedicineName string   `json:"medicineName"`
	ExpiryDate   string   `json:"expiryDate"`
	Dosage       string   `json:"dosage"`
	ImageURLs    []string `json:"imageUrls"`
}

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

// Order снимок покупки/клейма. Неизменяем после создания; имя и картинка
// денормализованы из записи склада на момент оформления.
type Order struct {
	OrderID       string      `json:"orderId"`
	MedicineName  string      `json:"medicineName"`
	Status        OrderStatus `json:"status"`
	Date          string      `json:"date"`
	ImageURL      string      `json:"imageUrl"`
	ReceiverName  string      `json:"receiverName"`
	Address       string      `json:"address"`
	PaymentMethod string      `json:"paymentMethod"`
}

// Способы оплаты: фиксированный набор для роли User;
// роль NGO всегда получает PaymentDonationClaim
const (
	PaymentCreditCard     = "Credit Card"
	PaymentDigitalWallet  = "Digital Wallet"
	PaymentCashOnDelivery = "Cash on Delivery"
	PaymentDonationClaim  = "Donation Claim"
)

// PaymentMethods методы, доступные роли User при оформлении
var PaymentMethods = []string{PaymentCreditCard, PaymentDigitalWallet, PaymentCashOnDelivery}

// ValidPaymentMethod проверяет выбранный покупателем метод оплаты
func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}
