package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User is keyed externally by OpenID, which never changes after insert.
type User struct {
	Base
	OpenID    string   `db:"openid"`
	UnionID   *string  `db:"unionid"`
	Nickname  string   `db:"nickname"`
	AvatarURL string   `db:"avatar_url"`
	Gender    int16    `db:"gender"`
	Country   *string  `db:"country"`
	Province  *string  `db:"province"`
	City      *string  `db:"city"`
	Language  *string  `db:"language"`
	Phone     *string  `db:"phone"`
	Email     *string  `db:"email"`
	Role      UserRole `db:"role"`
	IsActive  bool     `db:"is_active"`
	IsDeleted bool     `db:"is_deleted"`
}

// Profile holds the allow-listed fields a login may set or refresh.
type Profile struct {
	Nickname  string
	AvatarURL string
	Gender    int16
	Country   *string
	Province  *string
	City      *string
	Language  *string
	Phone     *string
	Email     *string
}

// ApplyProfile copies the allow-listed profile fields onto u. Optional fields
// are only overwritten when supplied.
func (u *User) ApplyProfile(p Profile) {
	u.Nickname = p.Nickname
	u.AvatarURL = p.AvatarURL
	u.Gender = p.Gender
	if p.Country != nil {
		u.Country = p.Country
	}
	if p.Province != nil {
		u.Province = p.Province
	}
	if p.City != nil {
		u.City = p.City
	}
	if p.Language != nil {
		u.Language = p.Language
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.Email != nil {
		u.Email = p.Email
	}
}
