package pipeline

// unknownToken is the literal the inference service is instructed to return
// when it cannot find reliable data.
const unknownToken = "UNKNOWN"

// childSafetyPrompt asks for a strict YES/NO verdict. Anything other than
// an exact YES (after trim+uppercase) is treated as not safe.
const childSafetyPrompt = `Is "%s" appropriate and safe for children to consume?

Consider:
1. Is it a regular food/drink item suitable for kids?
2. Does it contain alcohol, tobacco, drugs, or any harmful substances?
3. Is it age-appropriate for children?

Respond with ONLY "YES" if it's child-friendly, or "NO" if it's not appropriate for children.
Do not include any explanation, just YES or NO.`

// sugarContentPrompt asks for a bare number in grams, or the unknown token.
const sugarContentPrompt = `What is the sugar content in grams per 100g or per standard serving of "%s"?
Please provide ONLY the numerical value in grams. If you cannot find exact information, respond with "UNKNOWN".
Examples of good responses: "19", "14.5", "0.4"
Do not include units or explanations, just the number.`

// packageTextPrompt extracts identifying text from a package photo.
const packageTextPrompt = `Look at this product package image and extract ALL visible text you can see:
1. Product name (brand and product)
2. Barcode number if visible
3. Any other identifying text

Common grocery brands include: Parle, Britannia, Cadbury, Nestle, Haldiram, Lays, Kurkure, Coca-Cola, Pepsi, Frooti, Maaza, etc.

Respond with the product name or any identifying text you can read. If you can clearly identify the product, provide its name.
Just respond with the text, no JSON needed.`

// productLookupPrompt resolves name, retail price, and sugar content for an
// identified product via a grounded structured call. The sentinel object
// with name "UNKNOWN" is the documented "not found" response shape.
const productLookupPrompt = `Search the web for this grocery product: "%s"

Find and provide:
1. Full product name
2. Current retail price - check major grocery and e-commerce listings
3. Sugar content in grams per 100g or per pack

If this is a common grocery product, provide accurate information based on current market data.

Respond in JSON format:
{
  "name": "full product name",
  "cost": retail_price_number,
  "sugar": sugar_grams_number
}

If you cannot find reliable information, respond with:
{
  "name": "UNKNOWN",
  "cost": null,
  "sugar": null
}`
