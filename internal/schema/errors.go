package schema

import "github.com/Ranothil/nautilus-trader/errs"

func tickError(msg string) error {
	return errs.New("schema/quote-tick", errs.CodeInvalid, errs.WithMessage(msg))
}

func instrumentError(msg string) error {
	return errs.New("schema/instrument", errs.CodeInvalid, errs.WithMessage(msg))
}

func orderError(msg string) error {
	return errs.New("schema/order", errs.CodeInvalid, errs.WithMessage(msg))
}
