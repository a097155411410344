package cli

import "hooksync/internal/app"

var newAppService = app.NewService
