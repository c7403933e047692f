package lesson

import (
	"github.com/smallbiznis/tutorledger/internal/lesson/repository"
	"github.com/smallbiznis/tutorledger/internal/lesson/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lesson.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
