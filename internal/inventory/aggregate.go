package inventory

import "sort"

// DayGroup holds every record sharing one calendar date, in input order
type DayGroup struct {
	Date    string
	Records []Record
}

// Ingress sums the ingress quantity of the day
func (g DayGroup) Ingress() float64 {
	sum := 0.0
	for _, r := range g.Records {
		sum += r.IngressQty
	}
	return sum
}

// Usage sums the usage quantity of the day
func (g DayGroup) Usage() float64 {
	sum := 0.0
	for _, r := range g.Records {
		sum += r.UsageQty
	}
	return sum
}

// Last returns the last record of the day by input order
func (g DayGroup) Last() Record {
	return g.Records[len(g.Records)-1]
}

// AggregateByDate groups records by exact Date equality. Groups are returned
// in ascending date order; records within a group keep their input order.
func AggregateByDate(records []Record) []DayGroup {
	index := make(map[string]int)
	var groups []DayGroup

	for _, r := range records {
		i, ok := index[r.Date]
		if !ok {
			i = len(groups)
			index[r.Date] = i
			groups = append(groups, DayGroup{Date: r.Date})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Date < groups[b].Date
	})

	return groups
}

// DailyAggregate is the per (product, date) total of ingress and usage
type DailyAggregate struct {
	ProductName string  `json:"product_name"`
	Date        string  `json:"date"`
	SumIngress  float64 `json:"sum_ingress"`
	SumUsage    float64 `json:"sum_usage"`
}

// AggregateDaily totals records per product and date, products in first-seen
// order and dates ascending within a product
func AggregateDaily(records []Record) []DailyAggregate {
	var out []DailyAggregate
	for _, product := range Products(records) {
		for _, g := range AggregateByDate(FilterByProduct(records, product)) {
			out = append(out, DailyAggregate{
				ProductName: product,
				Date:        g.Date,
				SumIngress:  g.Ingress(),
				SumUsage:    g.Usage(),
			})
		}
	}
	return out
}

// Products lists distinct product names in first-seen order
func Products(records []Record) []string {
	seen := make(map[string]struct{})
	var products []string
	for _, r := range records {
		if _, ok := seen[r.ProductName]; ok {
			continue
		}
		seen[r.ProductName] = struct{}{}
		products = append(products, r.ProductName)
	}
	return products
}

// FilterByProduct keeps records whose ProductName equals product exactly
func FilterByProduct(records []Record, product string) []Record {
	var out []Record
	for _, r := range records {
		if r.ProductName == product {
			out = append(out, r)
		}
	}
	return out
}

// FilterByDateRange keeps records with start <= Date <= end. An empty bound
// is open.
func FilterByDateRange(records []Record, start, end string) []Record {
	if start == "" && end == "" {
		return records
	}
	var out []Record
	for _, r := range records {
		if start != "" && r.Date < start {
			continue
		}
		if end != "" && r.Date > end {
			continue
		}
		out = append(out, r)
	}
	return out
}
