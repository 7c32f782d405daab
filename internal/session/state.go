package session

import (
	"errors"

	"github.com/Akaza561/med-bridge/internal/domain"
)

var (
	// ErrScanBusy анализ уже выполняется; повторный запуск отклоняется
	ErrScanBusy = errors.New("scan already in progress")
	// ErrNoImages запуск анализа без единого вложения
	ErrNoImages = errors.New("no images attached")
	// ErrNoDraft сохранение без успешного результата анализа
	ErrNoDraft = errors.New("no draft to save")
)

// Slot независимое модальное окно; открытие одного не закрывает другие
type Slot string

const (
	SlotStock    Slot = "stock"
	SlotOrders   Slot = "orders"
	SlotWishlist Slot = "wishlist"
	SlotCheckout Slot = "checkout"
	SlotDetail   Slot = "detail"
	SlotSummary  Slot = "summary"
)

// Attachment вложенное изображение черновика регистрации
type Attachment struct {
	ID   string `json:"id"`
	Data string `json:"-"`
}

// Draft состояние потока регистрации: вложения, результат анализа
// или его ошибка, флаги «идёт анализ» и «опубликовано»
type Draft struct {
	Images   []Attachment            `json:"images"`
	Result   *domain.MedicineDetails `json:"result,omitempty"`
	ScanErr  string                  `json:"scanError,omitempty"`
	Scanning bool                    `json:"scanning"`
	Saved    bool                    `json:"saved"`
}

// Dialogs открытые слоты; Checkout и Detail держат снимок записи,
// Summary — завершённый заказ
type Dialogs struct {
	StockOpen    bool                   `json:"stockOpen"`
	OrdersOpen   bool                   `json:"ordersOpen"`
	WishlistOpen bool                   `json:"wishlistOpen"`
	Checkout     *domain.MedicineRecord `json:"checkout,omitempty"`
	Detail       *domain.MedicineRecord `json:"detail,omitempty"`
	Summary      *domain.Order          `json:"summary,omitempty"`
}

// State полное состояние сессии. Значение неизменяемое: каждый переход
// строит новое состояние через Reduce.
type State struct {
	Profile     domain.UserProfile      `json:"profile"`
	Dialogs     Dialogs                 `json:"dialogs"`
	Draft       Draft                   `json:"draft"`
	SearchQuery string                  `json:"searchQuery"`
	Stock       []domain.MedicineRecord `json:"stock"`
	WishlistIDs []string                `json:"wishlistIds"`
	Notice      string                  `json:"notice,omitempty"`
}

// Event событие пользовательского действия
type Event interface{ isEvent() }

type AttachImage struct{ Image Attachment }

type RemoveImage struct{ AttachmentID string }

type ScanStarted struct{}

type ScanSucceeded struct{ Details domain.MedicineDetails }

type ScanFailed struct{ Message string }

// DraftSaved черновик опубликован; Stock — обновлённая коллекция склада
type DraftSaved struct {
	Stock  []domain.MedicineRecord
	Notice string
}

// DraftReset явный «scan next»: вложения и черновик очищаются
type DraftReset struct{}

type StockLoaded struct{ Stock []domain.MedicineRecord }

type WishlistLoaded struct{ IDs []string }

type SearchChanged struct{ Query string }

type OpenDialog struct {
	Slot   Slot
	Record *domain.MedicineRecord
	Order  *domain.Order
}

type CloseDialog struct{ Slot Slot }

// OrderPlaced заказ оформлен: склад обновлён, чекаут закрыт, открыт
// итог заказа
type OrderPlaced struct {
	Order  domain.Order
	Stock  []domain.MedicineRecord
	Notice string
}

type Notified struct{ Message string }

func (AttachImage) isEvent()    {}
func (RemoveImage) isEvent()    {}
func (ScanStarted) isEvent()    {}
func (ScanSucceeded) isEvent()  {}
func (ScanFailed) isEvent()     {}
func (DraftSaved) isEvent()     {}
func (DraftReset) isEvent()     {}
func (StockLoaded) isEvent()    {}
func (WishlistLoaded) isEvent() {}
func (SearchChanged) isEvent()  {}
func (OpenDialog) isEvent()     {}
func (CloseDialog) isEvent()    {}
func (OrderPlaced) isEvent()    {}
func (Notified) isEvent()       {}

// Reduce чистая функция перехода (state, event) -> state.
// Ошибка означает отклонённый переход; состояние не меняется.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case AttachImage:
		// new attachment invalidates the previous analysis
		imgs := append(append([]Attachment{}, s.Draft.Images...), e.Image)
		s.Draft = Draft{Images: imgs}
		return s, nil

	case RemoveImage:
		imgs := make([]Attachment, 0, len(s.Draft.Images))
		for _, img := range s.Draft.Images {
			if img.ID != e.AttachmentID {
				imgs = append(imgs, img)
			}
		}
		s.Draft.Images = imgs
		if len(imgs) == 0 {
			s.Draft = Draft{}
		}
		return s, nil

	case ScanStarted:
		if s.Draft.Scanning {
			return s, ErrScanBusy
		}
		if len(s.Draft.Images) == 0 {
			return s, ErrNoImages
		}
		s.Draft.Scanning = true
		s.Draft.Result = nil
		s.Draft.ScanErr = ""
		s.Draft.Saved = false
		return s, nil

	case ScanSucceeded:
		d := e.Details
		s.Draft.Scanning = false
		s.Draft.Result = &d
		s.Draft.ScanErr = ""
		return s, nil

	case ScanFailed:
		// attachments stay for a manual retry
		s.Draft.Scanning = false
		s.Draft.Result = nil
		s.Draft.ScanErr = e.Message
		return s, nil

	case DraftSaved:
		if s.Draft.Result == nil {
			return s, ErrNoDraft
		}
		s.Draft.Saved = true
		s.Stock = e.Stock
		s.Notice = e.Notice
		return s, nil

	case DraftReset:
		s.Draft = Draft{}
		return s, nil

	case StockLoaded:
		s.Stock = e.Stock
		return s, nil

	case WishlistLoaded:
		s.WishlistIDs = e.IDs
		return s, nil

	case SearchChanged:
		s.SearchQuery = e.Query
		return s, nil

	case OpenDialog:
		switch e.Slot {
		case SlotStock:
			s.Dialogs.StockOpen = true
		case SlotOrders:
			s.Dialogs.OrdersOpen = true
		case SlotWishlist:
			s.Dialogs.WishlistOpen = true
		case SlotCheckout:
			s.Dialogs.Checkout = e.Record
		case SlotDetail:
			s.Dialogs.Detail = e.Record
		case SlotSummary:
			s.Dialogs.Summary = e.Order
		}
		return s, nil

	case CloseDialog:
		switch e.Slot {
		case SlotStock:
			s.Dialogs.StockOpen = false
			s.SearchQuery = ""
		case SlotOrders:
			s.Dialogs.OrdersOpen = false
		case SlotWishlist:
			s.Dialogs.WishlistOpen = false
		case SlotCheckout:
			s.Dialogs.Checkout = nil
		case SlotDetail:
			s.Dialogs.Detail = nil
		case SlotSummary:
			s.Dialogs.Summary = nil
		}
		return s, nil

	case OrderPlaced:
		o := e.Order
		s.Stock = e.Stock
		s.Dialogs.Checkout = nil
		s.Dialogs.Summary = &o
		s.Notice = e.Notice
		return s, nil

	case Notified:
		s.Notice = e.Message
		return s, nil
	}
	return s, nil
}

// FilterStock регистронезависимый поиск подстроки по имени;
// пустой запрос — вся коллекция
func FilterStock(stock []domain.MedicineRecord, query string) []domain.MedicineRecord {
	return filterByName(stock, query)
}
