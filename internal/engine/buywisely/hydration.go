package buywisely

import (
	"html"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// 하이드레이션 스크립트 패턴. __NEXT_DATA__ 스크립트는 id/type 속성 순서가
// 보장되지 않으므로 id 속성만을 기준으로 매칭합니다.
var (
	nextDataPattern = regexp.MustCompile(`(?is)<script[^>]*id=["']__NEXT_DATA__["'][^>]*>(.*?)</script>`)
	nextPushPattern = regexp.MustCompile(`(?s)self\.__next_f\.push\((\[.*?\])\)`)
)

// extractHydration 페이지 내 모든 하이드레이션 스크립트를 찾아 JSON으로
// 해석합니다. 해석에 실패한 조각은 건너뛰며 치명적이지 않습니다.
//
// 지원 형식:
//   - 구형: <script id="__NEXT_DATA__" type="application/json">{...}</script>
//   - 스트리밍: <script>self.__next_f.push([N,"chunkId:{...}"])</script>
//     (두 번째 원소를 첫 콜론 기준으로 나눈 나머지가 JSON)
func extractHydration(htmlText string) []gjson.Result {
	var results []gjson.Result

	for _, m := range nextDataPattern.FindAllStringSubmatch(htmlText, -1) {
		cleaned := strings.TrimSpace(html.UnescapeString(m[1]))
		if !gjson.Valid(cleaned) {
			continue
		}
		results = append(results, gjson.Parse(cleaned))
	}

	for _, m := range nextPushPattern.FindAllStringSubmatch(htmlText, -1) {
		if !gjson.Valid(m[1]) {
			continue
		}

		arr := gjson.Parse(m[1]).Array()
		if len(arr) < 2 || arr[1].Type != gjson.String {
			continue
		}

		_, chunk, ok := strings.Cut(arr[1].String(), ":")
		if !ok || !gjson.Valid(chunk) {
			continue
		}
		results = append(results, gjson.Parse(chunk))
	}

	return results
}

// maxSearchDepth 하이드레이션 구조 탐색의 깊이 한계
const maxSearchDepth = 64

// findProductRecord 해석된 하이드레이션 조각들에서 상품 레코드를 찾습니다.
// 구형 고정 경로(props.pageProps.product)를 먼저 확인하고, 없으면 문서
// 순서대로 title과 slug를 모두 가진 객체를 탐색합니다.
func findProductRecord(candidates []gjson.Result) (gjson.Result, bool) {
	for _, candidate := range candidates {
		if record := candidate.Get("props.pageProps.product"); record.IsObject() {
			return record, true
		}
	}

	for _, candidate := range candidates {
		if record, ok := searchTitleSlug(candidate); ok {
			return record, true
		}
	}
	return gjson.Result{}, false
}

// searchTitleSlug 깊이 제한을 둔 반복(스택) 탐색으로 title과 slug 키를 모두
// 가진 첫 객체를 문서 순서대로 찾습니다. 병적으로 깊은 구조에서의 재귀
// 폭주를 막기 위해 한계 깊이를 넘는 하위 구조는 탐색하지 않습니다.
func searchTitleSlug(root gjson.Result) (gjson.Result, bool) {
	type frame struct {
		node  gjson.Result
		depth int
	}

	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node.IsObject() && f.node.Get("title").Exists() && f.node.Get("slug").Exists() {
			return f.node, true
		}
		if f.depth >= maxSearchDepth || (!f.node.IsObject() && !f.node.IsArray()) {
			continue
		}

		var children []gjson.Result
		f.node.ForEach(func(_, value gjson.Result) bool {
			children = append(children, value)
			return true
		})
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: f.depth + 1})
		}
	}
	return gjson.Result{}, false
}
