// Package validate holds the pure predicates the extractors share to tell
// real profile data apart from navigation chrome and boilerplate.
package validate

// Validator accepts or rejects a candidate value of one domain.
type Validator[T any] interface {
	Valid(v T) bool
}

// Func adapts a predicate to Validator.
type Func[T any] func(v T) bool

// Valid implements Validator.
func (f Func[T]) Valid(v T) bool { return f(v) }

// All combines validators; the candidate must pass every one.
func All[T any](vs ...Validator[T]) Validator[T] {
	return Func[T](func(v T) bool {
		for _, x := range vs {
			if !x.Valid(v) {
				return false
			}
		}
		return true
	})
}

// Domain validators.
var (
	Name       Validator[string] = Func[string](IsValidName)
	OfficeName Validator[string] = Func[string](IsValidOfficeName)
	Address    Validator[string] = Func[string](IsAddressLike)
	PhotoImage Validator[Image]  = Func[Image](IsValidPropertyImage)
	Phone      Validator[string] = Func[string](IsValidPhone)
	Email      Validator[string] = Func[string](IsValidEmail)
)
