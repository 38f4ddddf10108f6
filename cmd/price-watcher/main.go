package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/darkkaiser/price-watcher/internal/api"
	"github.com/darkkaiser/price-watcher/internal/config"
	"github.com/darkkaiser/price-watcher/internal/engine/engines"
	"github.com/darkkaiser/price-watcher/internal/fetcher"
	"github.com/darkkaiser/price-watcher/internal/notification"
	"github.com/darkkaiser/price-watcher/internal/scraper"
	"github.com/darkkaiser/price-watcher/internal/watcher"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// 빌드 정보 변수 (Dockerfile의 ldflags로 주입됨)
var (
	Version   = "dev"     // Git 커밋 해시
	BuildDate = "unknown" // 빌드 날짜
)

const banner = `
  ____         _              __        __      _         _
 |  _ \  _ __ (_)  ___  ___   \ \      / /__ _ | |_  ___ | |__    ___  _ __
 | |_) || '__|| | / __|/ _ \   \ \ /\ / // _' || __|/ __|| '_ \  / _ \| '__|
 |  __/ | |   | || (__|  __/    \ V  V /| (_| || |_| (__ | | | ||  __/| |
 |_|    |_|   |_| \___|\___|     \_/\_/  \__,_| \__|\___||_| |_| \___||_|
                                                                        v%s
--------------------------------------------------------------------------------
`

// service 애플리케이션을 구성하는 장기 실행 서비스의 공통 인터페이스입니다.
type service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}

func main() {
	configFile := flag.String("config", config.DefaultFilename, "설정 파일 경로")
	flag.Parse()

	// 환경설정 정보를 읽어들인다.
	appConfig, err := config.LoadWithFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "설정 파일 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 로깅 시스템을 초기화한다.
	logOpts := applog.NewProductionOptions(config.AppName)
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	}
	logCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "로깅 시스템 초기화 실패: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logCloser.Close()
	}()

	applog.SetDebugMode(appConfig.Debug)

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, Version)

	log.Infof("빌드 정보 - 버전: %s, 빌드 날짜: %s", Version, BuildDate)
	log.Infof("Go 버전: %s, OS/Arch: %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	// 권장 설정 위반 사항을 경고로 출력한다. (기동은 계속 진행)
	for _, warning := range appConfig.VerifyRecommendations() {
		log.Warn(warning)
	}

	// 수집 파이프라인을 조립한다: Fetcher 체인 → Scraper → 엔진 레지스트리
	chainOpts := fetcher.DefaultChainOptions()
	chainOpts.MaxRetries = appConfig.Fetch.MaxRetries
	chainOpts.RequestsPerS = appConfig.Fetch.RequestsPerSecond
	chainOpts.Burst = appConfig.Fetch.Burst

	sc := scraper.New(fetcher.NewChain(chainOpts))
	registry := engines.NewRegistry()

	store, err := watcher.NewFileStore(appConfig.Storage.Dir)
	if err != nil {
		log.Fatalf("스냅샷 저장소 초기화 실패: %v", err)
	}

	telegram, err := notification.NewTelegram(appConfig.Notifier.Telegram)
	if err != nil {
		log.Fatalf("텔레그램 알림 초기화 실패: %v", err)
	}

	// 서비스를 생성하고 초기화한다.
	watcherService, err := watcher.NewService(appConfig, registry, sc, store, telegram)
	if err != nil {
		log.Fatalf("감시 서비스 초기화 실패: %v", err)
	}
	apiService := api.NewService(appConfig, watcherService)

	// Set up cancellation context and waitgroup
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWaiter := &sync.WaitGroup{}

	// 서비스를 시작한다.
	services := []service{watcherService, apiService}
	for _, s := range services {
		serviceStopWaiter.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWaiter); err != nil {
			log.Errorf("서비스 시작 실패: %v", err)
			cancel() // 다른 서비스들도 종료
			serviceStopWaiter.Wait()
			log.Fatal("서비스 초기화 실패로 프로그램을 종료합니다")
		}
	}

	// Handle sigterm and await termC signal
	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	<-termC // Blocks here until interrupted

	// Handle shutdown
	log.Info("Shutdown signal received")
	cancel()                 // Signal cancellation to context.Context
	serviceStopWaiter.Wait() // Block here until all workers are done
}
