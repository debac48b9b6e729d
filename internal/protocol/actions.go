package protocol

import "strings"

// Action is a normalized action identifier. Wire action names are matched
// case-insensitively and accept both CamelCase and snake_case forms
// ("SearchItemsForSale" == "search_items_for_sale"), so normalization
// lowercases and strips underscores.
type Action string

// Customer store actions.
const (
	ActionCreateAccount   Action = "createaccount"
	ActionLogin           Action = "login"
	ActionLogout          Action = "logout"
	ActionValidateSession Action = "validatesession"
	ActionAddToCart       Action = "addtocart"
	ActionRemoveFromCart  Action = "removefromcart"
	ActionViewCart        Action = "viewcart"
	ActionClearCart       Action = "clearcart"
	ActionSaveCart        Action = "savecart"
	ActionLoadCart        Action = "loadcart"
	ActionListSavedCarts  Action = "listsavedcarts"
	ActionGetPurchases    Action = "getpurchases"
	ActionMakePurchase    Action = "makepurchase"

	ActionGetSellerRatingByID      Action = "getsellerratingbyid"
	ActionGetSellerRatingBySession Action = "getsellerratingbysession"
)

// Product store actions.
const (
	ActionAddItem            Action = "additem"
	ActionUpdateQuantity     Action = "updatequantity"
	ActionChangePrice        Action = "changeprice"
	ActionListSellerItems    Action = "listselleritems"
	ActionGetItem            Action = "getitem"
	ActionGiveFeedback       Action = "givefeedback"
	ActionSearchItemsForSale Action = "searchitemsforsale"
)

// NormalizeAction maps a wire action name onto its Action form.
func NormalizeAction(name string) Action {
	return Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", ""))
}
