package interpret

import (
	"fmt"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/rag"
)

const systemPrompt = `당신은 HTP(집-나무-사람) 그림 검사를 해석하는 임상 심리 전문가입니다.
그림에서 관찰되는 요소를 근거로 신중하게 해석하며, 진단을 단정하지 않습니다.
모든 문장은 "~습니다", "~입니다"와 같은 격식체로 끝맺습니다.`

const initialPrompt = `첨부된 HTP 그림을 분석해 주세요. 반드시 아래 세 개의 섹션을 순서대로 작성합니다.

## 1. 심리 분석 요소 식별
그림에서 관찰되는 특징만 객관적으로 나열합니다. 해석은 쓰지 않습니다.
각 특징은 "- " 로 시작하는 한 줄로 작성합니다. (예: - 집: 창문이 없음)

## 2. 요소별 심층 분석
집, 나무, 사람 순서로 각 요소의 심리적 의미를 분석합니다.

## 3. 주요 감정 키워드
그림에서 드러나는 감정 키워드를 최소 세 개, 한 줄에 하나씩 단어만 적습니다.`

const finalPrompt = `아래는 같은 그림에 대한 1차 분석과 HTP 해석 참고 자료입니다.
참고 자료를 근거로 1차 분석을 보완하여 최종 분석을 작성해 주세요.
1차 분석과 동일한 세 개의 섹션 구조를 유지하고, 모든 문장은 격식체로 끝맺습니다.

[1차 분석]
%s

[참고 자료]
%s`

const summaryPrompt = `다음 HTP 그림 분석 결과를 검사를 받은 사용자가 읽기 쉬운 3~5문단의 요약으로 바꿔 주세요.
전문 용어는 풀어서 설명하고, 따뜻하지만 단정적이지 않은 어조를 유지합니다.
모든 문장은 격식체("~습니다")로 끝맺습니다. 제목이나 목록 없이 문단으로만 작성합니다.

[분석 결과]
%s`

const noReference = "(참고 자료 없음)"

func buildInitialPrompt(labels []string) string {
	if len(labels) == 0 {
		return initialPrompt
	}
	return initialPrompt + "\n\n참고로 객체 탐지 모델이 찾은 요소는 다음과 같습니다: " + strings.Join(labels, ", ")
}

func buildFinalPrompt(initial string, ref *rag.Hit) string {
	reference := noReference
	if ref != nil {
		reference = ref.Text
	}
	return fmt.Sprintf(finalPrompt, strings.TrimSpace(initial), reference)
}

func buildSummaryPrompt(final string) string {
	return fmt.Sprintf(summaryPrompt, strings.TrimSpace(final))
}
