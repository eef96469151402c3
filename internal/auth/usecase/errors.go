package usecase

import "errors"

// ErrConfigInvalid flags a session that initialized under an unusable
// configuration; every data operation must refuse until the deployment is
// reconfigured.
var ErrConfigInvalid = errors.New("project configuration is missing or invalid")
