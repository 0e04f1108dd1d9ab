package analysis

import (
	"fmt"
	"strings"

	"vet-lab-report/internal/domain/patients"
)

// Placeholders para campos vacíos. Nunca se envía "" ni "undefined".
const (
	PlaceholderUnknown      = "정보 없음"
	PlaceholderAge          = "0"
	PlaceholderSpecialNotes = "특이사항 없음"
	PlaceholderVetNotes     = "요청사항 없음"
	PlaceholderNoFile       = "업로드된 검사 결과 없음"
)

const fence = "```"

const systemInstruction = "**System Instruction:** 당신은 동물의 환자 데이터 분석을 전문으로 하는 뛰어난 AI 수의사입니다. " +
	"당신의 임무는 제공된 환자 정보를 바탕으로, 풍부하고 시각적으로 매력적인 수의학 분석 보고서를 생성하는 것입니다. " +
	"최종 결과물은 이모티콘, 명확한 헤더와 푸터, 깔끔한 레이아웃을 포함한 완전한 단일 HTML 문서여야 합니다. " +
	"전문성을 유지하면서도 보호자가 이해하기 쉽도록 친근한 톤을 사용해주세요. " +
	"최종 응답은 `<!DOCTYPE html>`로 시작하는 순수 HTML 코드여야 하며, 다른 설명이나 마크다운 래퍼(" + fence + "html)를 포함해서는 안 됩니다. " +
	"보고서는 한국어로 작성되어야 합니다."

var instructions = []string{
	"1. 제공된 모든 정보를 심층적으로 분석하십시오.",
	"2. 시각적으로 뛰어난 보고서를 HTML 형식으로 생성하십시오.",
	"3. 보고서 구성:",
	"    - 🏥 병원 정보와 보고서 날짜를 포함한 멋진 헤더.",
	"    - 🐾 환자 정보 요약 (아이콘 사용 권장).",
	"    - 🔬 검사 결과에 대한 상세하고 이해하기 쉬운 해석.",
	"    - 🤔 가능한 진단 또는 감별 진단 목록.",
	"    - 💡 추가 검사 또는 치료에 대한 명확한 권장 사항.",
	"    - 🩺 수의사의 중점 분석 요청이 있는 경우, 해당 내용을 특별히 강조하여 분석.",
	"    - 🙏 보고서를 마무리하는 친근한 푸터 메시지.",
	"4. 스타일링: 인라인 CSS를 사용하여 현대적이고 깔끔한 디자인(예: 부드러운 색상, 적절한 여백, 읽기 쉬운 글꼴)을 적용하십시오. " +
		"표, 목록, 아이콘/이모티콘을 적극적으로 활용하여 정보 전달력을 높여주세요.",
	"5. 출력 형식: 전체 응답은 오직 HTML 코드여야 합니다.",
}

// BuildPrompt arma la instrucción completa para el modelo. Es pura: mismo
// input, mismos bytes. El texto del archivo va entero, sin límite de tamaño.
func BuildPrompt(r patients.Record, fileText string) string {
	var b strings.Builder

	b.WriteString(systemInstruction)
	b.WriteString("\n\n**환자 정보:**\n")
	fmt.Fprintf(&b, "- 종: %s\n", or(r.Species.Label(), PlaceholderUnknown))
	fmt.Fprintf(&b, "- 품종: %s\n", or(r.EffectiveBreed(), PlaceholderUnknown))
	fmt.Fprintf(&b, "- 이름: %s\n", or(r.Name, PlaceholderUnknown))
	fmt.Fprintf(&b, "- 나이: %s살 %s개월\n", or(r.AgeYears, PlaceholderAge), or(r.AgeMonths, PlaceholderAge))
	fmt.Fprintf(&b, "- 성별: %s, %s\n", or(r.Sex.Label(), PlaceholderUnknown), r.NeuterStatus())
	fmt.Fprintf(&b, "- 검사 날짜: %s\n", or(r.TestDate, PlaceholderUnknown))
	fmt.Fprintf(&b, "- 특이사항: %s\n", or(r.SpecialNotes, PlaceholderSpecialNotes))
	fmt.Fprintf(&b, "- 수의사 소견 (중점 분석 요청): %s\n", or(r.VetNotes, PlaceholderVetNotes))

	b.WriteString("\n**검사 결과 (엑셀 파일에서 추출):**\n")
	b.WriteString(fence + "\n")
	b.WriteString(or(fileText, PlaceholderNoFile))
	b.WriteString("\n" + fence + "\n")

	b.WriteString("\n**지시사항:**\n")
	b.WriteString(strings.Join(instructions, "\n"))
	b.WriteString("\n")

	return b.String()
}

func or(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
