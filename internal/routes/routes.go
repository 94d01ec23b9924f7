package routes

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clickfood/webapp/internal/domain"
)

// Name identifies an application route.
type Name string

const (
	Main Name = "main"

	WebAppHome    Name = "webapp_home"
	Profile       Name = "profile"
	PrivacyPolicy Name = "privacy_policy"
	PublicOffer   Name = "public_offer"
	Fallback      Name = "fallback"
	Login         Name = "login"

	SuperadminHome     Name = "superadmin_home"
	SuperadminShops    Name = "superadmin_shops"
	SuperadminCreate   Name = "superadmin_create"
	SuperadminTakeover Name = "superadmin_takeover"

	PartnerHome         Name = "partner_home"
	PartnerCreate       Name = "partner_create"
	PartnerMenuForm     Name = "partner_menu_form"
	PartnerMenuModifier Name = "partner_menu_modifier"
	PartnerMenuList     Name = "partner_menu_list"
	PartnerReport       Name = "partner_report"
	PartnerIiko         Name = "partner_iiko"

	TopGroups     Name = "top_groups"
	OrderRoot     Name = "order_root"
	OrderShops    Name = "order_shops"
	OrderMenu     Name = "order_menu"
	OrderCheckout Name = "order_checkout"

	NotFound Name = "not_found"
)

const (
	PathMain          = "/"
	PathWebApp        = "/webapp"
	PathProfile       = "/webapp/profile"
	PathPrivacyPolicy = "/webapp/privacy-policy"
	PathPublicOffer   = "/webapp/public-offer"
	PathFallback      = "/webapp/fallback"
	PathLogin         = "/login"

	PathSuperadmin         = "/webapp/superadmin"
	PathSuperadminShops    = "/webapp/superadmin/shops"
	PathSuperadminCreate   = "/webapp/superadmin/create"
	PathSuperadminTakeover = "/webapp/superadmin/takeover"

	PathPartner             = "/webapp/partner"
	PathPartnerCreate       = "/webapp/partner/create"
	PathPartnerMenuForm     = "/webapp/partner/menu/form"
	PathPartnerMenuModifier = "/webapp/partner/menu/modifier"
	PathPartnerMenuList     = "/webapp/partner/menu/list"
	PathPartnerReport       = "/webapp/partner/report"
	PathPartnerIiko         = "/webapp/partner/iiko"

	PathTopGroups     = "/webapp/tops"
	PathOrder         = "/webapp/order"
	PathOrderShops    = "/webapp/order/shops"
	PathOrderMenu     = "/webapp/order/menu"
	PathOrderCheckout = "/webapp/order/checkout"
)

// Access describes who may navigate to a route.
type Access int

const (
	Public Access = iota
	// Authenticated routes need any identity, or one of Roles when set.
	Authenticated
	// PublicOnly routes are for visitors without a session.
	PublicOnly
)

// Route is one entry of the application route table.
type Route struct {
	Name   Name
	Path   string
	Title  string
	Access Access
	Roles  []domain.Role
}

var (
	partnerRoles    = []domain.Role{domain.RolePartner, domain.RoleSuperadmin}
	superadminRoles = []domain.Role{domain.RoleSuperadmin}
)

var table = []Route{
	{Name: Main, Path: PathMain, Title: "Main Page"},

	{Name: WebAppHome, Path: PathWebApp, Title: "WebApp Page"},
	{Name: Profile, Path: PathProfile, Title: "Profile Page", Access: Authenticated},
	{Name: PrivacyPolicy, Path: PathPrivacyPolicy, Title: "Privacy Policy Page"},
	{Name: PublicOffer, Path: PathPublicOffer, Title: "Public Offer Page"},
	{Name: Fallback, Path: PathFallback, Title: "Fallback Page"},
	{Name: Login, Path: PathLogin, Title: "Login Page", Access: PublicOnly},

	{Name: SuperadminHome, Path: PathSuperadmin, Title: "Superadmin Page", Access: Authenticated, Roles: superadminRoles},
	{Name: SuperadminShops, Path: PathSuperadminShops, Title: "Superadmin Shops Page", Access: Authenticated, Roles: superadminRoles},
	{Name: SuperadminCreate, Path: PathSuperadminCreate, Title: "Superadmin Create Page", Access: Authenticated, Roles: superadminRoles},
	{Name: SuperadminTakeover, Path: PathSuperadminTakeover, Title: "Superadmin Takeover Page", Access: Authenticated, Roles: superadminRoles},

	{Name: PartnerHome, Path: PathPartner, Title: "Partner Page", Access: Authenticated, Roles: partnerRoles},
	{Name: PartnerCreate, Path: PathPartnerCreate, Title: "Partner Create Page", Access: Authenticated, Roles: partnerRoles},
	{Name: PartnerMenuForm, Path: PathPartnerMenuForm, Title: "Partner Menu Form Page", Access: Authenticated, Roles: partnerRoles},
	{Name: PartnerMenuModifier, Path: PathPartnerMenuModifier, Title: "Partner Menu Modifier Page", Access: Authenticated, Roles: partnerRoles},
	{Name: PartnerMenuList, Path: PathPartnerMenuList, Title: "Partner Menu List Page", Access: Authenticated, Roles: partnerRoles},
	{Name: PartnerReport, Path: PathPartnerReport, Title: "Partner Report Page", Access: Authenticated, Roles: partnerRoles},
	{Name: PartnerIiko, Path: PathPartnerIiko, Title: "Partner Iiko Page", Access: Authenticated, Roles: partnerRoles},

	{Name: TopGroups, Path: PathTopGroups, Title: "Top Groups Page", Access: Authenticated},
	{Name: OrderRoot, Path: PathOrder, Title: "Order Page", Access: Authenticated},
	{Name: OrderShops, Path: PathOrderShops, Title: "Order Shops Page", Access: Authenticated},
	{Name: OrderMenu, Path: PathOrderMenu, Title: "Order Menu Page", Access: Authenticated},
	{Name: OrderCheckout, Path: PathOrderCheckout, Title: "Order Checkout Page", Access: Authenticated},
}

// NotFoundRoute is served for every path outside the table.
var NotFoundRoute = Route{Name: NotFound, Path: "*", Title: "Not Found Page"}

// Table returns a copy of the route table in declaration order.
func Table() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}

// ByPath finds the route registered for an exact path.
func ByPath(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// VisibleTo reports whether a session with the given identity may open r.
// A nil identity means unauthenticated.
func (r Route) VisibleTo(identity *domain.Identity) bool {
	switch r.Access {
	case Authenticated:
		if identity == nil {
			return false
		}
		return len(r.Roles) == 0 || identity.HasAnyRole(r.Roles...)
	case PublicOnly:
		return identity == nil
	default:
		return true
	}
}

// IsActive reports whether path is the current location. Without exact,
// path also matches every location below it.
func IsActive(current, path string, exact bool) bool {
	current, path = normalize(current), normalize(path)
	if exact || current == path {
		return current == path
	}
	if path == PathMain {
		return true
	}
	return strings.HasPrefix(current, path+"/")
}

// Breadcrumb is one step of the path towards the current location.
type Breadcrumb struct {
	Label  string
	Path   string
	IsLast bool
}

// Breadcrumbs splits a location into its cumulative path segments.
// "/webapp/privacy-policy" yields "Webapp" then "Privacy Policy".
func Breadcrumbs(location string) []Breadcrumb {
	segments := strings.FieldsFunc(stripQuery(location), func(r rune) bool { return r == '/' })
	crumbs := make([]Breadcrumb, 0, len(segments))
	for i, seg := range segments {
		crumbs = append(crumbs, Breadcrumb{
			Label:  label(seg),
			Path:   "/" + strings.Join(segments[:i+1], "/"),
			IsLast: i == len(segments)-1,
		})
	}
	return crumbs
}

func label(segment string) string {
	words := strings.Split(segment, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func normalize(path string) string {
	path = stripQuery(path)
	if path == "" {
		return PathMain
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return PathMain
		}
	}
	return path
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
