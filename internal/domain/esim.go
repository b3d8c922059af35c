package domain

import "time"

// EsimStatus follows the provisioning system's vocabulary.
type EsimStatus string

const (
	EsimCreate        EsimStatus = "CREATE"
	EsimPaid          EsimStatus = "PAID"
	EsimGotResource   EsimStatus = "GOT_RESOURCE"
	EsimInUse         EsimStatus = "IN_USE"
	EsimUsedUp        EsimStatus = "USED_UP"
	EsimUnusedExpired EsimStatus = "UNUSED_EXPIRED"
	EsimUsedExpired   EsimStatus = "USED_EXPIRED"
	EsimCancel        EsimStatus = "CANCEL"
	EsimRevoked       EsimStatus = "REVOKED"
)

func (s EsimStatus) Valid() bool {
	switch s {
	case EsimCreate, EsimPaid, EsimGotResource, EsimInUse, EsimUsedUp,
		EsimUnusedExpired, EsimUsedExpired, EsimCancel, EsimRevoked:
		return true
	}
	return false
}

type Esim struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"orderId"`
	UserID         string     `json:"userId"`
	ICCID          string     `json:"iccid"`
	IMSI           string     `json:"imsi,omitempty"`
	ActivationCode string     `json:"activationCode"`
	QRCodeURL      string     `json:"qrCodeUrl,omitempty"`
	SMDPAddress    string     `json:"smdpAddress,omitempty"`
	Status         EsimStatus `json:"status"`
	PackageCode    string     `json:"packageCode"`
	PackageName    string     `json:"packageName"`
	LocationName   string     `json:"locationName"`
	DataUsed       int64      `json:"dataUsed"`
	DataTotal      int64      `json:"dataTotal"`
	Duration       int        `json:"duration"`
	ActivatedAt    *time.Time `json:"activatedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// EsimUsagePatch carries the fields reported by a provisioning status sync.
// Nil fields are left untouched.
type EsimUsagePatch struct {
	Status      EsimStatus
	DataUsed    *int64
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
}
