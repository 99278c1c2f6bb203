package helpers

import (
	"math"
	"reflect"
	"sync"

	"property-bidding/internal/money"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators teaches gin's validator to compare decimal fields, so
// tags like gt=0 work on prices.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	})
}

func decimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	// out-of-range amounts are never converted; the service rejects them
	if money.OutOfRange(d) {
		return math.Inf(d.Sign())
	}
	f, _ := d.Float64()
	return f
}
