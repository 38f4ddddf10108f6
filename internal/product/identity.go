package product

import (
	"fmt"
	"strings"
)

// 엔티티/디바이스 이름 생성에 사용하는 구분 토큰
// 역방향 추출이 토큰 단위로 동작하므로 값이 변경되면 기존 이름과의 호환이 깨집니다.
const (
	entityIDPrefix  = "price_"
	deviceIDPrefix  = "price-device_"
	typeSeparator   = "_type_"
	deviceSeparator = "_device_"
)

// EntityID 판매처 코드와 식별 대상으로 엔티티 이름을 생성합니다.
//
// 형식: "price_{vendor}_type_{target}", 디바이스에 속한 경우
// "price_{vendor}_type_{target}_device_{deviceID}"가 됩니다.
func EntityID(vendorCode, entityTarget, deviceID string) string {
	id := fmt.Sprintf("%s%s%s%s", entityIDPrefix, vendorCode, typeSeparator, entityTarget)
	if deviceID != "" {
		id += deviceSeparator + deviceID
	}
	return id
}

// DeviceID 디바이스 식별 대상으로 디바이스 이름을 생성합니다.
// 형식: "price-device_{target}"
func DeviceID(deviceTarget string) string {
	return deviceIDPrefix + deviceTarget
}

// EntityTargetFromID 엔티티 이름에서 식별 대상을 추출합니다.
// 형식에 맞지 않으면 빈 문자열을 반환합니다.
func EntityTargetFromID(entityID string) string {
	_, after, found := strings.Cut(entityID, typeSeparator)
	if !found {
		return ""
	}

	// 디바이스 suffix가 있으면 잘라낸다
	if target, _, cut := strings.Cut(after, deviceSeparator); cut {
		return target
	}
	return after
}

// VendorFromEntityID 엔티티 이름에서 판매처 코드를 추출합니다.
// 형식에 맞지 않으면 빈 문자열을 반환합니다.
func VendorFromEntityID(entityID string) string {
	rest, found := strings.CutPrefix(entityID, entityIDPrefix)
	if !found {
		return ""
	}

	vendor, _, found := strings.Cut(rest, typeSeparator)
	if !found {
		return ""
	}
	return vendor
}

// DeviceFromEntityID 엔티티 이름에서 디바이스 ID를 추출합니다.
// 디바이스에 속하지 않은 엔티티면 빈 문자열을 반환합니다.
func DeviceFromEntityID(entityID string) string {
	_, after, found := strings.Cut(entityID, deviceSeparator)
	if !found {
		return ""
	}
	return after
}

// TargetFromDeviceID 디바이스 이름에서 식별 대상을 추출합니다.
// 형식에 맞지 않으면 빈 문자열을 반환합니다.
func TargetFromDeviceID(deviceID string) string {
	target, found := strings.CutPrefix(deviceID, deviceIDPrefix)
	if !found {
		return ""
	}
	return target
}
