package generator

import "fmt"

// StatsPrompt asks for the six weapon attributes in the single-line
// "Key: value, ..." layout the extractor expects.
func StatsPrompt(name string) string {
	return fmt.Sprintf(`
Generate a Skyrim weapon named '%s' with the following attributes:
- Damage: A single integer value (e.g., 15).
- Weight: A single integer value (e.g., 10).
- Upgrade: The upgrade material (e.g., Diamond Ingot, Steel to Daedric).
- Perk: A unique perk (e.g., Frostbite Cleave).
- Type: The type of weapon (e.g., Sword, Axe, Bow).
- Category: The category of the weapon (e.g., Melee, Ranged).

Do not use ranges for damage (e.g., 18-25), instead provide a single integer value. Format the output as:
Damage: <value>, Weight: <value>, Upgrade: <value>, Perk: <value>, Type: <value>, Category: <value>.

Ensure that Damage is an integer and Weight is a decimal number.
`, name)
}

func NamePrompt(base string) string {
	return fmt.Sprintf(`
Create a Skyrim-style weapon name using the base '%[1]s'.
The name should sound mystical or powerful, and follow formats like:
- %[1]s's Icefang Blade
- %[1]s's Vengeance
- Blade of %[1]s

Return only the name, no description.
`, base)
}
