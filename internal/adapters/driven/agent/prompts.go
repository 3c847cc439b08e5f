package agent

// DefaultClassifyPrompt is the built-in classification prompt.
// Placeholders, in order: image instruction, author, content, image note.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultClassifyPrompt = `You classify posts from Facebook groups where people sell and rent second-hand apartments in Israel. Posts are mostly in Hebrew.

%s and put it in exactly one category:

RELEVANT - an apartment for sale or rent.
- Describes a specific apartment (rooms, size, floor and so on).
- May or may not state a price.
- May come from an owner or from a broker.

AUCTION - a receivership sale, tender or public auction.
- Text or images mentioning "כונס נכסים", "מכרז" or "הזמנה להציע הצעות".

BROKER - a broker advertising their services without a specific apartment.
- "מחפש לקוחות", "תיק נכסים", "שירות תיווך".

SPAM - unrelated advertising such as renovations, cleaning or moving services.

WANTED - someone looking for an apartment ("מחפש דירה", "דרוש").

QUESTION - a question to the group ("מישהו יודע?", "איך...?").

---

Author: %s
Post:
%s
%s

---

Images:
- An image of a receivership or tender notice means AUCTION.
- An image advertising renovations, cleaning or moving means SPAM.

Comments:
- The text may contain replies from other people. Ignore them completely.
- Judge only the original post. If it describes an apartment, it is RELEVANT even when a reply asks a question.

Reply with JSON only, in exactly this shape:
{"category": "RELEVANT", "isBroker": false, "confidence": 0.95, "reason": "apartment for sale with a detailed description"}

Rules:
1. An apartment posted by a broker: category RELEVANT, isBroker true.
2. A broker looking for clients: category BROKER, isBroker true.
3. A receivership or tender: category AUCTION, isBroker false.
4. confidence is between 0.5 and 1.0.
5. When unsure, answer RELEVANT.`

// DefaultCompletePrompt is the built-in completion prompt.
// Placeholders, in order: missing fields, content.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const DefaultCompletePrompt = `You extract details from Hebrew real-estate posts.

Read the post below and extract only these missing fields: %s

Post:
%s

---

price - the price of the apartment itself.
- Ignore prices of a kitchen, renovation, cabinets, furniture or other upgrades ("מטבח 100,000" is not the price).
- "3.5 מיליון" is 3500000.
- If there is no apartment price, return null.

city - only a city that is written explicitly in the post. Do not infer a city from a street or a neighbourhood. Otherwise null.

location - a neighbourhood and/or street.
- Neighbourhood only: "קריית יובל".
- Street only: "רחוב הרצל".
- Both: "קריית יובל, רחוב ז'בוטינסקי".
- A street without a city is still a location.
- A city alone is not a location.

rooms - the number of rooms as written, for example "3" or "2.5". Otherwise null.

Replies from other people may follow the post. Take details from the original post only.

If you are not sure about a field, return null. Never guess.

Reply with JSON only, in exactly this shape:
{"price": "7200", "city": "ירושלים", "location": "פסגת זאב", "rooms": "4"}`
