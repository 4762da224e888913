package dialogue

import "fmt"

// Slot identifies one cascade position.
type Slot string

const (
	SlotCountry   Slot = "country"
	SlotDeparture Slot = "departure_city"
	SlotDates     Slot = "dates"
	SlotAdults    Slot = "adults"
	SlotNights    Slot = "nights"
	SlotChildAge  Slot = "child_age"
)

// QuestionFor returns the user-facing question for an unfilled slot.
// Exactly one question per turn; the cascade never batches.
func QuestionFor(slot Slot) string {
	switch slot {
	case SlotCountry:
		return "В какую страну хотите поехать?"
	case SlotDeparture:
		return "Из какого города планируете вылет?"
	case SlotDates:
		return "На какие даты планируете поездку?"
	case SlotAdults:
		return "Сколько взрослых поедет?"
	case SlotNights:
		return "На сколько ночей планируете поездку?"
	default:
		return "Уточните, пожалуйста, детали поездки."
	}
}

// ChildAgeQuestion asks for the age of the n-th declared child (1-based).
func ChildAgeQuestion(n, total int) string {
	if total <= 1 {
		return "Сколько лет ребёнку?"
	}
	return fmt.Sprintf("Сколько лет %s ребёнку?", ordinalRu(n))
}

func ordinalRu(n int) string {
	switch n {
	case 1:
		return "первому"
	case 2:
		return "второму"
	case 3:
		return "третьему"
	default:
		return fmt.Sprintf("%d-му", n)
	}
}

// Fixed user-facing messages for terminal and recoverable outcomes.
const (
	MsgGreeting = "Здравствуйте! Помогу подобрать тур. В какую страну хотите поехать?"

	MsgInvalidCountry = "К сожалению, мы не продаём туры по этому направлению. " +
		"Могу предложить Турцию, Египет, ОАЭ или Таиланд."

	MsgEscalation = "Для групп такого размера подбором занимается наш менеджер. " +
		"Я передал вашу заявку, с вами свяжутся в ближайшее время."

	MsgSearchApology = "К сожалению, поиск сейчас занимает больше времени, чем обычно. " +
		"Попробуйте, пожалуйста, повторить запрос через пару минут."

	MsgUpstreamDown = "Сервис подбора туров временно недоступен. " +
		"Пожалуйста, попробуйте немного позже."

	MsgSearching = "Ищу варианты, это займёт меньше минуты..."

	MsgDateReask = "Не получилось разобрать даты. Назовите, пожалуйста, конкретные даты, " +
		"например 15.06 или 05.06-12.06."

	MsgHotelNotFound = "Не нашёл отель с таким названием. Проверьте, пожалуйста, написание, " +
		"или скажите, что подойдёт любой хороший отель."

	MsgNoMoreOffers = "Больше вариантов по этому запросу нет. Могу изменить параметры поиска."

	MsgNothingFound = "К сожалению, по вашему запросу ничего не нашлось даже с учётом альтернатив. " +
		"Попробуйте изменить даты или направление."

	MsgFAQ = "Хороший вопрос! Сейчас уточню у коллег и вернусь к вам. " +
		"А пока могу продолжить подбор тура."
)
