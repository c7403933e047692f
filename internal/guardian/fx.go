package guardian

import (
	"github.com/smallbiznis/tutorledger/internal/guardian/repository"
	"github.com/smallbiznis/tutorledger/internal/guardian/service"
	"go.uber.org/fx"
)

var Module = fx.Module("guardian.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
