package reservy

// Validatable is implemented by argument structs that need business validation
// beyond the schema (positive party size, parseable dates). Called after defaults
// are applied and the JSON is decoded.
type Validatable interface {
	Validate() error
}

// Defaulter is implemented (with a pointer receiver) by argument structs whose
// omitted fields take non-zero defaults. SetDefaults runs before decoding, so
// explicitly supplied values, zeros included, win.
type Defaulter interface {
	SetDefaults()
}

type schemaValidator interface {
	Validate(v any) error
}

func validateAgainstSchema(validate schemaValidator, v any) error {
	if err := validate.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}
