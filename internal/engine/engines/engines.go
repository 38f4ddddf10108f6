// Package engines 지원하는 모든 판매처 엔진을 한곳에서 등록합니다.
package engines

import (
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/engine/buywisely"
	"github.com/darkkaiser/price-watcher/internal/engine/coupang"
	"github.com/darkkaiser/price-watcher/internal/engine/daiso"
	"github.com/darkkaiser/price-watcher/internal/engine/gsthefresh"
	"github.com/darkkaiser/price-watcher/internal/engine/homeplus"
	"github.com/darkkaiser/price-watcher/internal/engine/idus"
	"github.com/darkkaiser/price-watcher/internal/engine/kurly"
	"github.com/darkkaiser/price-watcher/internal/engine/lotteon"
	"github.com/darkkaiser/price-watcher/internal/engine/ncnc"
	"github.com/darkkaiser/price-watcher/internal/engine/oasis"
	"github.com/darkkaiser/price-watcher/internal/engine/oliveyoung"
	"github.com/darkkaiser/price-watcher/internal/engine/rankingdak"
	"github.com/darkkaiser/price-watcher/internal/engine/smartstore"
	"github.com/darkkaiser/price-watcher/internal/engine/ssg"
)

// NewRegistry 지원하는 모든 판매처가 등록된 Registry를 생성합니다.
func NewRegistry() *engine.Registry {
	r := engine.NewRegistry()
	r.MustRegister(buywisely.Factory())
	r.MustRegister(coupang.Factory())
	r.MustRegister(daiso.Factory())
	r.MustRegister(gsthefresh.Factory())
	r.MustRegister(homeplus.Factory())
	r.MustRegister(idus.Factory())
	r.MustRegister(kurly.Factory())
	r.MustRegister(lotteon.Factory())
	r.MustRegister(ncnc.Factory())
	r.MustRegister(oasis.Factory())
	r.MustRegister(oliveyoung.Factory())
	r.MustRegister(rankingdak.Factory())
	r.MustRegister(smartstore.Factory())
	r.MustRegister(ssg.Factory())
	return r
}
