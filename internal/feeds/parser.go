// internal/feeds/parser.go
package feeds

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/javajoker/coral-ledger/internal/ledger"
	"github.com/javajoker/coral-ledger/internal/models"
)

// The legacy feeds were written by hand and by several generations of the
// surrounding app: ids and amounts show up as strings or numbers, records
// may sit at the top level or under a wrapper key, and timestamps are either
// RFC 3339 strings or epoch milliseconds. Missing required fields are
// structural errors and abort the parse.

// records returns the record array of a feed document.
func records(data []byte, wrappers ...string) ([]gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("feed is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if doc.IsArray() {
		return doc.Array(), nil
	}
	if doc.IsObject() {
		for _, key := range append(wrappers, "data", "items") {
			if v := doc.Get(key); v.IsArray() {
				return v.Array(), nil
			}
		}
	}
	return nil, fmt.Errorf("feed holds no record array")
}

// first returns the first present field among the given names.
func first(r gjson.Result, names ...string) gjson.Result {
	for _, n := range names {
		if v := r.Get(n); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func text(r gjson.Result, names ...string) string {
	v := first(r, names...)
	if !v.Exists() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func requireText(record, id string, r gjson.Result, field string, aliases ...string) (string, error) {
	s := text(r, append([]string{field}, aliases...)...)
	if s == "" {
		return "", &ledger.StructuralError{Record: record, ID: id, Field: field, Reason: "is required"}
	}
	return s, nil
}

func number(record, id string, r gjson.Result, field string, required bool, aliases ...string) (decimal.Decimal, bool, error) {
	v := first(r, append([]string{field}, aliases...)...)
	if !v.Exists() {
		if required {
			return decimal.Zero, false, &ledger.StructuralError{Record: record, ID: id, Field: field, Reason: "is required"}
		}
		return decimal.Zero, false, nil
	}
	var raw string
	switch v.Type {
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = strings.TrimSpace(v.Str)
	default:
		return decimal.Zero, false, &ledger.StructuralError{Record: record, ID: id, Field: field, Reason: "is not a number"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, &ledger.StructuralError{Record: record, ID: id, Field: field, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return d, true, nil
}

func timestamp(record, id string, r gjson.Result, field string) (time.Time, error) {
	v := first(r, field)
	if !v.Exists() {
		return time.Time{}, nil
	}
	switch v.Type {
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC(), nil
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
	}
	return time.Time{}, &ledger.StructuralError{Record: record, ID: id, Field: field, Reason: fmt.Sprintf("%q is not a timestamp", v.String())}
}

func recordID(record string, i int, r gjson.Result) (string, error) {
	id := text(r, "id", "_id")
	if id == "" {
		return "", &ledger.StructuralError{Record: record, ID: "#" + strconv.Itoa(i), Field: "id", Reason: "is required"}
	}
	return id, nil
}

// ParseInvoices decodes the asset directory feed.
func ParseInvoices(data []byte) ([]models.Invoice, error) {
	rs, err := records(data, "invoices", "assets")
	if err != nil {
		return nil, fmt.Errorf("invoices feed: %w", err)
	}

	invoices := make([]models.Invoice, 0, len(rs))
	for i, r := range rs {
		inv, err := parseInvoice(i, r)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func parseInvoice(i int, r gjson.Result) (models.Invoice, error) {
	const record = "invoice"
	id, err := recordID(record, i, r)
	if err != nil {
		return models.Invoice{}, err
	}

	inv := models.Invoice{
		BaseModel:     models.BaseModel{ID: id},
		InvoiceNumber: text(r, "invoiceNumber", "number"),
		BusinessID:    text(r, "businessId"),
		Currency:      strings.ToUpper(text(r, "currency")),
		Notes:         text(r, "notes", "description"),
	}
	if inv.OwnerID, err = requireText(record, id, r, "ownerId", "owner"); err != nil {
		return models.Invoice{}, err
	}
	if inv.DebtorID, err = requireText(record, id, r, "debtorId", "debtor"); err != nil {
		return models.Invoice{}, err
	}

	status, err := requireText(record, id, r, "status")
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Status = models.InvoiceStatus(strings.ToUpper(status))
	if !inv.Status.Valid() {
		return models.Invoice{}, &ledger.StructuralError{Record: record, ID: id, Field: "status", Reason: fmt.Sprintf("%q is not a known status", status)}
	}

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{
		{"startDate", &inv.StartDate},
		{"endDate", &inv.EndDate},
		{"createdAt", &inv.CreatedAt},
		{"updatedAt", &inv.UpdatedAt},
	} {
		if *f.dst, err = timestamp(record, id, r, f.name); err != nil {
			return models.Invoice{}, err
		}
	}

	items := first(r, "lineItems", "items")
	if items.Exists() && !items.IsArray() {
		return models.Invoice{}, &ledger.StructuralError{Record: record, ID: id, Field: "lineItems", Reason: "is not an array"}
	}
	for j, item := range items.Array() {
		itemID := fmt.Sprintf("%s/lineItems[%d]", id, j)
		productID, err := requireText("line item", itemID, item, "productId", "product")
		if err != nil {
			return models.Invoice{}, err
		}
		qty, _, err := number("line item", itemID, item, "quantity", true, "qty")
		if err != nil {
			return models.Invoice{}, err
		}
		if !qty.IsInteger() {
			return models.Invoice{}, &ledger.StructuralError{Record: "line item", ID: itemID, Field: "quantity", Reason: "is not a whole number"}
		}
		inv.LineItems = append(inv.LineItems, models.LineItem{ProductID: productID, Quantity: int(qty.IntPart())})
	}

	if err := ledger.ValidateLineItems(id, inv.LineItems); err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

// ParseUsers decodes the user directory feed.
func ParseUsers(data []byte) ([]models.User, error) {
	rs, err := records(data, "users")
	if err != nil {
		return nil, fmt.Errorf("users feed: %w", err)
	}

	users := make([]models.User, 0, len(rs))
	for i, r := range rs {
		const record = "user"
		id, err := recordID(record, i, r)
		if err != nil {
			return nil, err
		}
		address, err := requireText(record, id, r, "address", "walletAddress")
		if err != nil {
			return nil, err
		}
		userType := models.UserType(strings.ToLower(text(r, "type", "userType")))
		switch userType {
		case models.UserTypeIndividual, models.UserTypeBusiness:
		default:
			return nil, &ledger.StructuralError{Record: record, ID: id, Field: "type", Reason: fmt.Sprintf("%q is not individual or business", userType)}
		}
		users = append(users, models.User{
			BaseModel: models.BaseModel{ID: id},
			Address:   address,
			Alias:     text(r, "alias"),
			Name:      text(r, "name"),
			Type:      userType,
			Email:     text(r, "email"),
		})
	}
	return users, nil
}

// ParseBusinesses decodes the business directory feed.
func ParseBusinesses(data []byte) ([]models.Business, error) {
	rs, err := records(data, "businesses")
	if err != nil {
		return nil, fmt.Errorf("businesses feed: %w", err)
	}

	businesses := make([]models.Business, 0, len(rs))
	for i, r := range rs {
		const record = "business"
		id, err := recordID(record, i, r)
		if err != nil {
			return nil, err
		}
		name, err := requireText(record, id, r, "businessName", "name")
		if err != nil {
			return nil, err
		}
		b := models.Business{
			BaseModel:          models.BaseModel{ID: id},
			BusinessName:       name,
			WalletAddress:      text(r, "walletAddress", "address"),
			RegistrationNumber: text(r, "registrationNumber"),
			Country:            strings.ToUpper(text(r, "country")),
			KYBStatus:          models.KYBStatus(strings.ToLower(text(r, "kybStatus"))),
		}
		if b.KYBStatus == "" {
			b.KYBStatus = models.KYBStatusPending
		}
		for _, c := range first(r, "categories").Array() {
			if s := strings.TrimSpace(c.String()); s != "" {
				b.Categories = append(b.Categories, s)
			}
		}
		businesses = append(businesses, b)
	}
	return businesses, nil
}

// ParseProducts decodes the product catalog feed.
func ParseProducts(data []byte) ([]models.Product, error) {
	rs, err := records(data, "products")
	if err != nil {
		return nil, fmt.Errorf("products feed: %w", err)
	}

	products := make([]models.Product, 0, len(rs))
	for i, r := range rs {
		const record = "product"
		id, err := recordID(record, i, r)
		if err != nil {
			return nil, err
		}
		price, _, err := number(record, id, r, "price", true, "unitPrice")
		if err != nil {
			return nil, err
		}
		productType := models.ProductType(strings.ToLower(text(r, "productType", "type")))
		if productType == "" {
			productType = models.ProductTypeProduct
		}
		products = append(products, models.Product{
			BaseModel:   models.BaseModel{ID: id},
			ProductName: text(r, "productName", "name"),
			ProductType: productType,
			Price:       price,
			BusinessID:  text(r, "businessId"),
			Description: text(r, "description"),
		})
	}
	return products, nil
}

// ParseShares decodes the share ledger feed. isRoot falls back to the
// absence of a parent when the flag is missing.
func ParseShares(data []byte) ([]models.ShareNode, error) {
	rs, err := records(data, "shares", "nodes")
	if err != nil {
		return nil, fmt.Errorf("shares feed: %w", err)
	}

	nodes := make([]models.ShareNode, 0, len(rs))
	for i, r := range rs {
		n, err := parseShare(i, r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func optionalID(r gjson.Result, names ...string) *string {
	if s := text(r, names...); s != "" {
		return &s
	}
	return nil
}

func parseShare(i int, r gjson.Result) (models.ShareNode, error) {
	const record = "share"
	id, err := recordID(record, i, r)
	if err != nil {
		return models.ShareNode{}, err
	}

	n := models.ShareNode{
		ID:       id,
		ParentID: optionalID(r, "parentId"),
		RootID:   optionalID(r, "rootId"),
	}
	if n.AssetID, err = requireText(record, id, r, "assetId", "invoiceId"); err != nil {
		return models.ShareNode{}, err
	}
	if n.OwnerID, err = requireText(record, id, r, "ownerId", "owner"); err != nil {
		return models.ShareNode{}, err
	}

	if flag := r.Get("isRoot"); flag.Exists() {
		n.IsRoot = flag.Bool()
	} else {
		n.IsRoot = n.ParentID == nil
	}

	if n.SharePercentage, _, err = number(record, id, r, "sharePercentage", true, "percentage"); err != nil {
		return models.ShareNode{}, err
	}
	if n.RemainingPercentage, _, err = number(record, id, r, "remainingPercentage", n.IsRoot); err != nil {
		return models.ShareNode{}, err
	}
	if n.Price, _, err = number(record, id, r, "price", true); err != nil {
		return models.ShareNode{}, err
	}
	if n.CreatedAt, err = timestamp(record, id, r, "createdAt"); err != nil {
		return models.ShareNode{}, err
	}
	return n, nil
}
