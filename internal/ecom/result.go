package ecom

// CodeMapLineItem tags line-item mapping failures in the logs.
const CodeMapLineItem = "EPF_168"

// Result is the outcome of mapping one line item. Exactly one of Product
// and Err is set.
type Result struct {
	Index   int
	Key     string
	Product *Product
	Err     error
	Code    string
}

func (r Result) OK() bool { return r.Err == nil && r.Product != nil }

// Products returns the mapped products, keeping the position of failed
// items as nil entries.
func Products(results []Result) []*Product {
	out := make([]*Product, len(results))
	for i, r := range results {
		out[i] = r.Product
	}
	return out
}

// Succeeded returns only the mapped products.
func Succeeded(results []Result) []*Product {
	var out []*Product
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Product)
		}
	}
	return out
}

// Failures returns the results that carry an error.
func Failures(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
