package xvizschema

// ValidateMetadata validates a session metadata message.
func (v *Validator) ValidateMetadata(payload any) error { return v.Validate(Metadata, payload) }

// ValidateStateUpdate validates a state_update message.
func (v *Validator) ValidateStateUpdate(payload any) error { return v.Validate(StateUpdate, payload) }

// ValidateStreamSet validates one timestamped stream set.
func (v *Validator) ValidateStreamSet(payload any) error { return v.Validate(StreamSet, payload) }

// ValidatePose validates a pose record.
func (v *Validator) ValidatePose(payload any) error { return v.Validate(Pose, payload) }

// ValidateTimeSeries validates a time series state.
func (v *Validator) ValidateTimeSeries(payload any) error { return v.Validate(TimeSeries, payload) }

// ValidateFutureInstances validates a future instances record.
func (v *Validator) ValidateFutureInstances(payload any) error {
	return v.Validate(FutureInstances, payload)
}

// ValidateVariable validates a variable record.
func (v *Validator) ValidateVariable(payload any) error { return v.Validate(Variable, payload) }

// ValidateStreamMetadata validates the metadata entry of a single stream.
func (v *Validator) ValidateStreamMetadata(payload any) error {
	return v.Validate(StreamMetadata, payload)
}

// ValidateLink validates a stream link.
func (v *Validator) ValidateLink(payload any) error { return v.Validate(Link, payload) }

// ValidatePrimitive validates payload against primitives/<kind>, e.g.
// ValidatePrimitive("point", p). An unknown kind is a *NotFoundError.
func (v *Validator) ValidatePrimitive(kind string, payload any) error {
	return v.validateSubtype(NamespacePrimitives, kind, payload)
}

// ValidateAnnotation validates payload against annotations/<kind>.
func (v *Validator) ValidateAnnotation(kind string, payload any) error {
	return v.validateSubtype(NamespaceAnnotations, kind, payload)
}

// ValidateSession validates payload against session/<kind>, e.g. "start"
// or "transform_log".
func (v *Validator) ValidateSession(kind string, payload any) error {
	return v.validateSubtype(NamespaceSession, kind, payload)
}

func (v *Validator) validateSubtype(namespace, kind string, payload any) error {
	name, ok := subtype(namespace, kind)
	if !ok {
		return &NotFoundError{Name: name}
	}
	return v.Validate(name, payload)
}
