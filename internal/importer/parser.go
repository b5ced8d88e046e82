package importer

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/search"
)

// productNamespace seeds the name-based UUIDs of imported products.
var productNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pders01/mrkt/products"))

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
	pricePattern = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)`)
)

// Feed is the store-level information of a parsed product feed.
type Feed struct {
	Title       string
	Description string
	Link        string
	Products    []catalog.Product
}

type Parser struct {
	parser   *gofeed.Parser
	maxItems int
}

// NewParser caps the number of products taken from one feed; 0 means no cap.
func NewParser(maxItems int) *Parser {
	return &Parser{parser: gofeed.NewParser(), maxItems: maxItems}
}

// Parse turns every titled item of an RSS, Atom or JSON feed into a product
// of storeID. Prices come from the Google Merchant g:price element.
func (p *Parser) Parse(r io.Reader, storeID string) (*Feed, error) {
	f, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &Feed{
		Title:       strings.TrimSpace(f.Title),
		Description: plainText(f.Description),
		Link:        f.Link,
		Products:    make([]catalog.Product, 0, len(f.Items)),
	}
	seen := make(map[string]bool, len(f.Items))
	for _, item := range f.Items {
		if p.maxItems > 0 && len(out.Products) >= p.maxItems {
			break
		}
		name := strings.TrimSpace(item.Title)
		if name == "" {
			continue
		}
		id := ProductID(storeID, itemKey(item))
		if seen[id] {
			continue
		}
		seen[id] = true

		price, currency := itemPrice(item)
		out.Products = append(out.Products, catalog.Product{
			ID:          id,
			StoreID:     storeID,
			Name:        name,
			Description: plainText(firstNonEmpty(item.Description, item.Content)),
			Price:       price,
			Currency:    currency,
			Path:        search.DefaultPath(search.KindProduct, id),
			URL:         item.Link,
		})
	}
	return out, nil
}

// ProductID derives a stable product id from the store and the item key.
func ProductID(storeID, key string) string {
	return uuid.NewSHA1(productNamespace, []byte(storeID+"\x00"+key)).String()
}

func itemKey(item *gofeed.Item) string {
	return firstNonEmpty(item.GUID, item.Link, item.Title)
}

// itemPrice returns a nil price for items without a readable price.
func itemPrice(item *gofeed.Item) (*float64, string) {
	for _, name := range []string{"sale_price", "price"} {
		if v := extensionValue(item.Extensions, "g", name); v != "" {
			if amount, currency, ok := ParsePrice(v); ok {
				return &amount, currency
			}
		}
	}
	if v, ok := item.Custom["price"]; ok {
		if amount, currency, ok := ParsePrice(v); ok {
			return &amount, currency
		}
	}
	return nil, ""
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	if exts == nil {
		return ""
	}
	for _, e := range exts[prefix][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// ParsePrice reads merchant price strings such as "12.99 USD", "USD 12.99"
// or "$12.99". The currency defaults to USD.
func ParsePrice(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	m := pricePattern.FindStringSubmatchIndex(s)
	if m == nil {
		return 0, "", false
	}
	num := strings.Replace(s[m[2]:m[3]], ",", ".", 1)
	amount, err := strconv.ParseFloat(num, 64)
	if err != nil || amount < 0 {
		return 0, "", false
	}

	currency := "USD"
	rest := strings.TrimSpace(s[:m[2]] + " " + s[m[3]:])
	for _, field := range strings.Fields(rest) {
		if len(field) == 3 && strings.ToUpper(field) == field {
			currency = field
			break
		}
	}
	return amount, currency, true
}

func plainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
