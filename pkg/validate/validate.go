// Package validate 入参校验：validator 标签 + 英文错误翻译，字段名取 json 标签。
package validate

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// ErrInvalid 所有校验错误都包装此哨兵
var ErrInvalid = errors.New("invalid parameter")

var (
	once  sync.Once
	v     *validator.Validate
	trans ut.Translator
)

func engine() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		enT := en.New()
		trans, _ = ut.New(enT, enT).GetTranslator("en")
		if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
			panic(err)
		}
	})
	return v, trans
}

// Struct 校验结构体，失败时返回包装 ErrInvalid 的错误，消息为翻译后的字段错误
func Struct(s any) error {
	val, tr := engine()
	err := val.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, m := range verrs.Translate(tr) {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return errors.Wrap(ErrInvalid, strings.Join(msgs, "; "))
}

// Message 取出校验错误的可读消息
func Message(err error) string {
	msg := err.Error()
	return strings.TrimSuffix(msg, ": "+ErrInvalid.Error())
}
